package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/fundwatch/internal/journal"
)

// journalCmd represents the journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "信号日记",
}

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示信号日记",
	RunE:  runJournalShow,
}

var (
	journalStyle string
	journalWidth int
	journalRaw   bool
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalShowCmd.Flags().StringVar(&journalStyle, "style", "auto", "glamour style (auto|dark|light|notty)")
	journalShowCmd.Flags().IntVar(&journalWidth, "width", 100, "word wrap width")
	journalShowCmd.Flags().BoolVar(&journalRaw, "raw", false, "print the markdown source")
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	content, err := a.journal.Read()
	if err != nil {
		return err
	}

	if journalRaw {
		fmt.Print(content)
		return nil
	}

	out, err := journal.Render(content, journalStyle, journalWidth)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
