package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cutdesk/cutdesk/internal/config"
	"github.com/cutdesk/cutdesk/internal/deadline"
	"github.com/cutdesk/cutdesk/internal/domain"
	"github.com/cutdesk/cutdesk/internal/notify"
	"github.com/cutdesk/cutdesk/internal/payroll"
	"github.com/cutdesk/cutdesk/internal/seed"
	"github.com/cutdesk/cutdesk/internal/store"
	"github.com/cutdesk/cutdesk/internal/tasks"
	"github.com/cutdesk/cutdesk/web/api"
)

var (
	listStatus   string
	listAssignee string
	servePort    int
	seedFile     string
	statusNotes  string
	statusFB     string
	expectedVer  int64
	baseSalary   int64
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	rankStyles  = map[int]lipgloss.Style{
		1: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		2: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		3: lipgloss.NewStyle().Foreground(lipgloss.Color("172")),
	}
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listAssignee, "assignee", "", "filter by assignee id")
	rootCmd.AddCommand(listCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show pipeline totals",
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	setStatusCmd := &cobra.Command{
		Use:   "set-status TASK STATUS",
		Short: "Apply a status transition to a task",
		Args:  cobra.ExactArgs(2),
		RunE:  runSetStatus,
	}
	setStatusCmd.Flags().StringVar(&statusNotes, "notes", "", "replace the task notes")
	setStatusCmd.Flags().StringVar(&statusFB, "feedback", "", "revision feedback for the editor")
	setStatusCmd.Flags().Int64Var(&expectedVer, "expected-version", -1, "fail if the task version moved")
	rootCmd.AddCommand(setStatusCmd)

	assignCmd := &cobra.Command{
		Use:   "assign TASK TARGET",
		Short: "Reassign a task (user id, agency:ID, unassign, revoke)",
		Args:  cobra.ExactArgs(2),
		RunE:  runAssign,
	}
	rootCmd.AddCommand(assignCmd)

	bonusCmd := &cobra.Command{
		Use:   "bonus",
		Short: "Monthly bonus settlement",
	}
	bonusCmd.AddCommand(&cobra.Command{
		Use:   "calc",
		Short: "Rank this month's workers and lock the period",
		RunE:  runBonusCalc,
	})
	bonusCmd.AddCommand(&cobra.Command{
		Use:   "revert",
		Short: "Delete this month's bonuses and unlock the period",
		RunE:  runBonusRevert,
	})
	bonusCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the period lock and persisted awards",
		RunE:  runBonusStatus,
	})
	rootCmd.AddCommand(bonusCmd)

	payCmd := &cobra.Command{
		Use:   "pay",
		Short: "Confirm or revert salary payouts",
	}
	confirmCmd := &cobra.Command{
		Use:   "confirm USER",
		Short: "Mark a worker's period as paid",
		Args:  cobra.ExactArgs(1),
		RunE:  runPayConfirm,
	}
	confirmCmd.Flags().Int64Var(&baseSalary, "base", 0, "base salary in VND")
	payCmd.AddCommand(confirmCmd)
	payCmd.AddCommand(&cobra.Command{
		Use:   "revert USER",
		Short: "Undo a confirmed payout",
		Args:  cobra.ExactArgs(1),
		RunE:  runPayRevert,
	})
	rootCmd.AddCommand(payCmd)

	timeCmd := &cobra.Command{
		Use:   "time TASK",
		Short: "Show a task's tracked time, including the running interval",
		Args:  cobra.ExactArgs(1),
		RunE:  runTime,
	}
	rootCmd.AddCommand(timeCmd)

	treasurerCmd := &cobra.Command{
		Use:   "treasurer USER on|off",
		Short: "Grant or revoke the payroll settlement capability",
		Args:  cobra.ExactArgs(2),
		RunE:  runTreasurer,
	}
	rootCmd.AddCommand(treasurerCmd)

	scheduleCmd := &cobra.Command{
		Use:   "schedule USER",
		Short: "Show a user's schedule blocks for the coming week",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedule,
	}
	rootCmd.AddCommand(scheduleCmd)

	deadlineCmd := &cobra.Command{
		Use:   "deadline-check",
		Short: "Run the overdue sweep once",
		RunE:  runDeadlineCheck,
	}
	rootCmd.AddCommand(deadlineCmd)

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture data into the database",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&seedFile, "file", "", "seed YAML file (built-in fixture when omitted)")
	rootCmd.AddCommand(seedCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and background jobs",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithLocalFallback(configPath)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if dir := filepath.Dir(cfg.General.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return store.Open(cfg.General.DatabasePath)
}

func resolveActor(st *store.Store) (domain.Actor, error) {
	user, err := st.GetUserByUsername(actorName)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("resolving actor %q: %w", actorName, err)
	}
	owned, err := st.OwnedAgencyID(user.ID)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{
		ID:            user.ID,
		Role:          user.Role,
		IsTreasurer:   user.IsTreasurer,
		OwnedAgencyID: owned,
	}, nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.ListTasks(store.ListOptions{
		Status:     domain.TaskStatus(listStatus),
		AssigneeID: listAssignee,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tTIMER\tTIME\tDEADLINE")
	for _, t := range list {
		deadlineCol := "-"
		if t.Deadline != nil {
			deadlineCol = humanize.Time(*t.Deadline)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.TimerStatus,
			(time.Duration(t.LiveSeconds(now)) * time.Second).String(),
			deadlineCol)
	}
	return w.Flush()
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := st.ListTasks(store.ListOptions{})
	if err != nil {
		return err
	}

	counts := map[domain.TaskStatus]int{}
	for _, t := range list {
		counts[t.Status]++
	}
	fmt.Printf("Tasks: %d total | %d awaiting | %d active | %d review | %d completed\n",
		len(list),
		counts[domain.StatusAwaiting],
		counts[domain.StatusAccepted]+counts[domain.StatusInProgress]+counts[domain.StatusRevision]+counts[domain.StatusFrameFix]+counts[domain.StatusPaused],
		counts[domain.StatusReview],
		counts[domain.StatusCompleted])
	return nil
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	dispatcher := newDispatcher(cfg, st, nil)
	defer dispatcher.Close()

	req := tasks.UpdateStatusRequest{
		TaskID:    args[0],
		NewStatus: domain.TaskStatus(args[1]),
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &statusNotes
	}
	if cmd.Flags().Changed("feedback") {
		req.Feedback = &statusFB
	}
	if expectedVer >= 0 {
		req.ExpectedVersion = &expectedVer
	}

	result, err := tasks.New(st, dispatcher).UpdateTaskStatus(actor, req)
	if err != nil {
		return err
	}
	fmt.Printf("Task %s is now %s (%s tracked)\n", args[0], args[1],
		(time.Duration(result.FinalSeconds) * time.Second).String())
	return nil
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	dispatcher := newDispatcher(cfg, st, nil)
	defer dispatcher.Close()

	if err := tasks.New(st, dispatcher).AssignTask(actor, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Task %s -> %s\n", args[0], args[1])
	return nil
}

func runTime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dispatcher := newDispatcher(cfg, st, nil)
	defer dispatcher.Close()

	seconds, err := tasks.New(st, dispatcher).LiveSeconds(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Task %s: %s tracked\n", args[0],
		(time.Duration(seconds) * time.Second).String())
	return nil
}

func runTreasurer(cmd *cobra.Command, args []string) error {
	var on bool
	switch args[1] {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("expected on or off, got %q", args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	user, err := st.GetUserByUsername(args[0])
	if err != nil {
		return fmt.Errorf("resolving user %q: %w", args[0], err)
	}

	if err := payroll.New(st).SetTreasurer(actor, user.ID, on); err != nil {
		return err
	}
	if on {
		fmt.Printf("%s can now settle payroll\n", user.Username)
	} else {
		fmt.Printf("%s can no longer settle payroll\n", user.Username)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.GetUserByUsername(args[0])
	if err != nil {
		return fmt.Errorf("resolving user %q: %w", args[0], err)
	}

	now := time.Now()
	blocks, err := st.UserBlocks(user.ID, now.Add(-24*time.Hour), now.Add(7*24*time.Hour))
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Printf("%s has no schedule blocks this week\n", user.Username)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "START\tEND\tTYPE\tNOTE")
	for _, b := range blocks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			b.StartTime.Format("Mon 15:04"), b.EndTime.Format("Mon 15:04"),
			b.Type, b.Note)
	}
	return w.Flush()
}

func runBonusCalc(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	round, err := payroll.New(st).CalculateMonthlyBonus(actor)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Bonus settlement %02d/%d", round.Month, round.Year)))
	printBonuses(st, round.Bonuses)
	return nil
}

func runBonusRevert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	if err := payroll.New(st).RevertMonthlyBonus(actor); err != nil {
		return err
	}
	fmt.Println("Bonus round reverted; the period is unlocked.")
	return nil
}

func runBonusStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	engine := payroll.New(st)
	lock, month, year, err := engine.LockStatus()
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("Payroll %02d/%d", month, year)))
	if lock == nil || !lock.IsLocked {
		fmt.Println(dimStyle.Render("Period is open; no settlement recorded."))
		return nil
	}
	fmt.Printf("Locked %s by %s\n", humanize.Time(lock.LockedAt), lock.LockedBy)

	bonuses, err := engine.Bonuses()
	if err != nil {
		return err
	}
	printBonuses(st, bonuses)
	return nil
}

func printBonuses(st *store.Store, bonuses []domain.MonthlyBonus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tREVENUE\tHOURS\tBONUS")
	for _, b := range bonuses {
		name := b.UserID
		if user, err := st.GetUser(b.UserID); err == nil {
			name = user.Username
		}
		style, ok := rankStyles[b.Rank]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%s\n",
			style.Render(fmt.Sprintf("#%d", b.Rank)), name,
			humanize.Comma(b.Revenue), b.ExecutionTimeHours,
			humanize.Comma(b.BonusAmount))
	}
	w.Flush()
}

func runPayConfirm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	user, err := st.GetUserByUsername(args[0])
	if err != nil {
		return fmt.Errorf("resolving user %q: %w", args[0], err)
	}

	payment, err := payroll.New(st).ConfirmPayment(actor, user.ID, baseSalary)
	if err != nil {
		return err
	}
	fmt.Printf("Paid %s: %s base + %s bonus = %s VND\n",
		user.Username,
		humanize.Comma(payment.BaseSalary),
		humanize.Comma(payment.Bonus),
		humanize.Comma(payment.TotalAmount))
	return nil
}

func runPayRevert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	actor, err := resolveActor(st)
	if err != nil {
		return err
	}

	user, err := st.GetUserByUsername(args[0])
	if err != nil {
		return fmt.Errorf("resolving user %q: %w", args[0], err)
	}

	if err := payroll.New(st).RevertPayment(actor, user.ID); err != nil {
		return err
	}
	fmt.Printf("Payment of %s reverted; the period is open for edits again.\n", user.Username)
	return nil
}

func runDeadlineCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	dispatcher := newDispatcher(cfg, st, nil)
	defer dispatcher.Close()

	monitor, err := deadline.New(st, dispatcher, cfg.Deadline.Cron)
	if err != nil {
		return err
	}
	n, err := monitor.Sweep()
	if err != nil {
		return err
	}
	fmt.Printf("Overdue sweep done: %d task(s) penalized\n", n)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	fixture := seed.Default()
	path := seedFile
	if path == "" {
		path = cfg.General.SeedFile
	}
	if path != "" {
		fixture, err = seed.Load(path)
		if err != nil {
			return err
		}
	}

	created, err := seed.Apply(st, fixture)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d record(s)\n", created)
	return nil
}

// newDispatcher assembles the notification fan-out: Slack (when configured),
// the persisted in-app bell, and optionally the websocket hub.
func newDispatcher(cfg *config.Config, st *store.Store, hub notify.Notifier) *notify.Dispatcher {
	notifiers := []notify.Notifier{notify.NewStoreNotifier(st)}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if hub != nil {
		notifiers = append(notifiers, hub)
	}
	return notify.NewDispatcher(notify.NewMultiNotifier(notifiers...), cfg.Notifications.QueueSize)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := config.ResolvePath(configPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		port = cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)

	// The server is built first so its hub can join the fan-out.
	server := api.NewServer(st, nil, nil, addr)
	dispatcher := newDispatcher(cfg, st, server.Hub())
	defer dispatcher.Close()

	taskSvc := tasks.New(st, dispatcher)
	engine := payroll.New(st)
	server.SetServices(taskSvc, engine)

	var monitor *deadline.Monitor
	if cfg.Deadline.Enabled {
		monitor, err = deadline.New(st, dispatcher, cfg.Deadline.Cron)
		if err != nil {
			return err
		}
		go monitor.Start()
		defer monitor.Stop()
		fmt.Printf("Overdue sweep scheduled, next run %s\n", humanize.Time(monitor.NextRun()))
	}

	// Hot-reload the config file; the sweep schedule is the one setting
	// that can change without a restart.
	watcher, err := config.NewWatcher(cfgPath, func(next *config.Config) {
		log.Printf("config: reloaded %s", cfgPath)
		if monitor == nil {
			return
		}
		if err := monitor.Reschedule(next.Deadline.Cron); err != nil {
			log.Printf("config: keeping old sweep schedule: %v", err)
			return
		}
		log.Printf("config: sweep rescheduled, next run %s", humanize.Time(monitor.NextRun()))
	})
	if err != nil {
		log.Printf("config: hot reload unavailable: %v", err)
	} else {
		watcher.Start(context.Background())
		defer watcher.Stop()
	}

	fmt.Printf("Cutdesk API listening at http://%s\n", addr)
	return server.Start()
}
