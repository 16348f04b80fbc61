// Package process runs the feedback pipeline offline against a recording
// on disk, without starting the HTTP server.
package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/pipeline"
	"github.com/jkoskela/vocalis/internal/provider"
)

type options struct {
	audioPath    string
	title        string
	employeeID   string
	employeeName string
	employeeRole string
	managerID    string
	managerName  string
	priorSummary string
	tone         string
}

// Command returns the process subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the feedback pipeline on a recording file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, opts)
		},
	}

	cmd.Flags().StringVar(&opts.audioPath, "audio", "", "Path to the session recording")
	cmd.Flags().StringVar(&opts.title, "title", "Feedback session", "Session title")
	cmd.Flags().StringVar(&opts.employeeID, "employee-id", "", "Employee identifier")
	cmd.Flags().StringVar(&opts.employeeName, "employee-name", "", "Employee name")
	cmd.Flags().StringVar(&opts.employeeRole, "employee-role", "", "Employee role")
	cmd.Flags().StringVar(&opts.managerID, "manager-id", "", "Manager identifier (generated when empty)")
	cmd.Flags().StringVar(&opts.managerName, "manager-name", "", "Manager name")
	cmd.Flags().StringVar(&opts.priorSummary, "prior-summary", "", "Summary of the previous review cycle")
	cmd.Flags().StringVar(&opts.tone, "tone", "", "Feedback tone (appreciative, developmental, neutral)")
	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("employee-id")
	_ = cmd.MarkFlagRequired("employee-name")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, opts *options) error {
	audio, err := os.ReadFile(opts.audioPath)
	if err != nil {
		return fmt.Errorf("reading recording: %w", err)
	}

	ds := datastore.New(settings)
	if ds == nil {
		return errors.New("no datastore configured, enable sqlite output")
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	managerID := opts.managerID
	if managerID == "" {
		managerID = uuid.NewString()
	}

	session := &datastore.Session{
		ID:            uuid.NewString(),
		Title:         opts.title,
		Status:        datastore.StatusRecording,
		EmployeeID:    opts.employeeID,
		EmployeeName:  opts.employeeName,
		EmployeeRole:  opts.employeeRole,
		ManagerID:     managerID,
		ManagerName:   opts.managerName,
		PriorSummary:  opts.priorSummary,
		RecordingMode: datastore.RecordingModeFull,
	}
	if err := ds.SaveSession(session); err != nil {
		return err
	}

	var client provider.Client
	if oc := provider.NewOpenAI(&settings.Provider, nil); oc != nil {
		client = oc
	}

	processor := pipeline.New(ds, settings, client, nil)
	out, err := processor.ProcessSession(cmd.Context(), pipeline.Request{
		SessionID: session.ID,
		ManagerID: managerID,
		Audio:     audio,
		Filename:  filepath.Base(opts.audioPath),
		Tone:      opts.tone,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
