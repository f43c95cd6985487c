package store

const schema = `
CREATE TABLE IF NOT EXISTS agencies (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    code TEXT NOT NULL UNIQUE,
    owner_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    nickname TEXT,
    email TEXT,
    role TEXT NOT NULL DEFAULT 'USER',
    is_treasurer BOOLEAN DEFAULT FALSE,
    reputation INTEGER NOT NULL DEFAULT 100,
    agency_id TEXT REFERENCES agencies(id),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    notes TEXT,
    status TEXT NOT NULL DEFAULT 'awaiting_assignment',
    timer_status TEXT NOT NULL DEFAULT 'STOPPED',
    timer_started_at TIMESTAMP,
    accumulated_seconds INTEGER NOT NULL DEFAULT 0,
    version INTEGER NOT NULL DEFAULT 0,
    deadline TIMESTAMP,
    assignee_id TEXT REFERENCES users(id),
    assigned_agency_id TEXT REFERENCES agencies(id),
    wage_vnd INTEGER NOT NULL DEFAULT 0,
    job_price_usd REAL NOT NULL DEFAULT 0,
    is_penalized BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);
CREATE INDEX IF NOT EXISTS idx_tasks_agency ON tasks(assigned_agency_id);

CREATE TABLE IF NOT EXISTS feedback (
    id TEXT PRIMARY KEY,
    task_id TEXT NOT NULL REFERENCES tasks(id),
    author_id TEXT NOT NULL REFERENCES users(id),
    content TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_feedback_task ON feedback(task_id);

CREATE TABLE IF NOT EXISTS monthly_bonuses (
    user_id TEXT NOT NULL REFERENCES users(id),
    month INTEGER NOT NULL,
    year INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    revenue INTEGER NOT NULL,
    execution_time_hours REAL NOT NULL,
    bonus_amount INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, month, year)
);

CREATE TABLE IF NOT EXISTS payroll_locks (
    month INTEGER NOT NULL,
    year INTEGER NOT NULL,
    is_locked BOOLEAN NOT NULL DEFAULT TRUE,
    locked_at TIMESTAMP,
    locked_by TEXT,
    PRIMARY KEY (month, year)
);

CREATE TABLE IF NOT EXISTS payments (
    user_id TEXT NOT NULL REFERENCES users(id),
    month INTEGER NOT NULL,
    year INTEGER NOT NULL,
    base_salary INTEGER NOT NULL DEFAULT 0,
    bonus INTEGER NOT NULL DEFAULT 0,
    total_amount INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    paid_at TIMESTAMP,
    PRIMARY KEY (user_id, month, year)
);

CREATE TABLE IF NOT EXISTS schedule_blocks (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    task_id TEXT REFERENCES tasks(id),
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    note TEXT
);

CREATE INDEX IF NOT EXISTS idx_blocks_user ON schedule_blocks(user_id);
CREATE INDEX IF NOT EXISTS idx_blocks_task ON schedule_blocks(task_id);

CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    user_id TEXT REFERENCES users(id),
    task_id TEXT REFERENCES tasks(id),
    kind TEXT,
    message TEXT NOT NULL,
    is_read BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);
`
