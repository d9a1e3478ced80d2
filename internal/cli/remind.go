package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"todo/internal/bot"
	"todo/internal/repository"
	"todo/internal/service"
)

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their open task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(db *gorm.DB) error {
				categories, err := service.NewCategoryService(repository.NewCategoryRepository(db)).List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					fmt.Fprintln(out, "No categories.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tOPEN")
				for _, c := range categories {
					fmt.Fprintf(tw, "%s\t%d\n", c.Name, c.OpenTasks)
				}
				return tw.Flush()
			})
		},
	}
}

// notifier delivers a rendered digest.
type notifier interface {
	Notify(ctx context.Context, text string) error
}

type writerNotifier struct {
	w io.Writer
}

func (n writerNotifier) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintln(n.w, text)
	return err
}

func (a *app) remindCmd() *cobra.Command {
	var (
		telegram bool
		watch    bool
		days     int
		at       string
		every    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Show or send a digest of overdue and upcoming tasks",
		Long: `Builds a digest of overdue tasks, tasks due today and tasks due within --days days.

By default the digest is printed once. With --telegram it is sent to the
configured chat instead. With --watch it is delivered on a schedule (--at
HH:MM daily or --every DURATION, falling back to reminder.daily_at and
reminder.interval from the config) until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.Reminder.DueSoonDays
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative, got %d", days)
			}
			atSet, everySet := cmd.Flags().Changed("at"), cmd.Flags().Changed("every")
			if !atSet && !everySet {
				at, every = a.cfg.Reminder.DailyAt, a.cfg.Reminder.Interval
			}

			var send notifier = writerNotifier{w: cmd.OutOrStdout()}
			if telegram {
				tg, err := bot.NewWithEndpoint(a.cfg.Telegram.Token, a.cfg.Telegram.APIEndpoint, a.cfg.Telegram.ChatID,
					&http.Client{Timeout: 30 * time.Second}, a.log)
				if err != nil {
					return err
				}
				send = tg
			}

			return a.withDB(func(db *gorm.DB) error {
				reminders := service.NewReminderService(repository.NewTaskRepository(db))
				deliver := func(ctx context.Context) error {
					digest, err := reminders.Digest(ctx, a.now(), days)
					if err != nil {
						return err
					}
					if !telegram {
						return send.Notify(ctx, digest.Text())
					}
					if digest.Empty() {
						a.log.Info().Msg("nothing due, digest not sent")
						return nil
					}
					return send.Notify(ctx, digest.HTML())
				}

				if !watch {
					return deliver(cmd.Context())
				}
				return a.watch(cmd.Context(), at, every, deliver)
			})
		},
	}

	cmd.Flags().BoolVar(&telegram, "telegram", false, "Send the digest to the configured Telegram chat")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and deliver the digest on a schedule")
	cmd.Flags().IntVar(&days, "days", 3, "Days ahead that count as due soon (default reminder.due_soon_days)")
	cmd.Flags().StringVar(&at, "at", "", "Deliver daily at HH:MM when watching")
	cmd.Flags().DurationVar(&every, "every", 0, "Deliver every interval when watching, e.g. 5h")
	cmd.MarkFlagsMutuallyExclusive("at", "every")
	return cmd
}

// watch runs deliver on the given schedule until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func (a *app) watch(ctx context.Context, at string, every time.Duration, deliver func(context.Context) error) error {
	if at == "" && every <= 0 {
		return errors.New("--watch needs --at or --every (or reminder.daily_at / reminder.interval in the config)")
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := service.NewSchedulerService(time.Local, a.log)
	job := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := deliver(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("deliver digest")
		}
	}

	var (
		id  cron.EntryID
		err error
	)
	if at != "" {
		id, err = scheduler.ScheduleDaily(at, job)
	} else {
		id, err = scheduler.ScheduleInterval(every, job)
	}
	if err != nil {
		return fmt.Errorf("schedule digest: %w", err)
	}

	scheduler.Start()
	defer scheduler.Stop()
	a.log.Info().Time("next", scheduler.Next(id)).Msg("reminder scheduler started")

	<-ctx.Done()
	a.log.Info().Msg("reminder scheduler stopped")
	return nil
}
