package main

import (
	"strconv"

	"bizdash/internal/core"
	"bizdash/internal/services"

	"github.com/spf13/cobra"
)

var flagJobFilter string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job schedule",
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Counts by effective status",
	RunE:  runJobsStats,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs with their derived status",
	RunE:  runJobsList,
}

func init() {
	jobsListCmd.Flags().StringVarP(&flagJobFilter, "filter", "f", "all", "all, today, upcoming, overdue, completed or cancelled")
	jobsCmd.AddCommand(jobsStatsCmd, jobsListCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsStats(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	s, err := a.jobs.Stats(cmd.Context(), flagUser)
	if err != nil {
		return err
	}

	invalid := strconv.Itoa(s.Invalid)
	if s.Invalid > 0 {
		invalid = warn(invalid)
	}
	keyValues("JOBS  "+flagUser,
		[2]string{"Total", strconv.Itoa(s.Total)},
		[2]string{"Pending", strconv.Itoa(s.Pending)},
		[2]string{"Overdue", strconv.Itoa(s.Overdue)},
		[2]string{"Completed", strconv.Itoa(s.Completed)},
		[2]string{"Cancelled", strconv.Itoa(s.Cancelled)},
		[2]string{"Today", strconv.Itoa(s.Today)},
		[2]string{"Invalid schedule", invalid},
	)
	return nil
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	if _, err := services.GetJobFilter(flagJobFilter); err != nil {
		return err
	}
	a, err := open(cmd.Context())
	if err != nil {
		return err
	}
	views, err := a.jobs.List(cmd.Context(), flagUser, services.JobQuery{When: flagJobFilter})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		status := string(v.Status)
		if v.Status == core.JobOverdue {
			status = warn(status)
		}
		rows = append(rows, []string{
			v.Job.ScheduledDate,
			v.Job.ScheduledTime,
			v.Job.PersonName,
			v.Job.Title,
			string(v.Job.Type),
			status,
		})
	}
	printTable("JOBS  "+flagJobFilter, []string{"Date", "Time", "Person", "Title", "Type", "Status"}, rows)
	return nil
}
