package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/tabnine/internal/client"
	"github.com/dshills/tabnine/internal/editor"
)

var (
	completeFile   string
	completeBefore string
	completeAfter  string
	completeAccept bool
)

func init() {
	completeCmd.Flags().StringVarP(&completeFile, "file", "f", "untitled", "Filename reported to the engine")
	completeCmd.Flags().StringVar(&completeBefore, "before", "", "Text before the cursor")
	completeCmd.Flags().StringVar(&completeAfter, "after", "", "Text after the cursor")
	completeCmd.Flags().BoolVar(&completeAccept, "accept", false, "Apply the top candidate and print the result")
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Request completions at a cursor position",
	RunE:  runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	buf := editor.NewBuffer(completeBefore + completeAfter)
	buf.SetCursor(len([]rune(completeBefore)))

	sess := client.New(client.Options{
		Config:   cfg,
		Surface:  buf,
		Filename: func() string { return completeFile },
		Logger:   log,
		Messages: func(lines []string) {
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
		},
	})
	defer sess.Stop()

	sess.TriggerCompletion()

	cursor := sess.Suggestion()
	if !cursor.Active() {
		fmt.Fprintln(cmd.OutOrStdout(), "no completions")
		return nil
	}

	if completeAccept {
		sess.Accept()
		fmt.Fprintln(cmd.OutOrStdout(), buf.String())
		return nil
	}

	for i := 0; i < cursor.Count(); i++ {
		cand, ok := cursor.Selected()
		if !ok {
			break
		}
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s%s\n", marker, cand.NewPrefix, cand.NewSuffix)
		sess.CycleNext()
	}
	return nil
}
