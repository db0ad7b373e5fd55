package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// notifyCmd represents the notify command
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "推送通知",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "发送测试通知",
	Long: `Sends a test message through every configured sink (BARK_KEY, PUSHPLUS_TOKEN).`,
	RunE: runNotifyTest,
}

var (
	notifyTitle string
	notifyBody  string
)

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)

	notifyTestCmd.Flags().StringVar(&notifyTitle, "title", "fundwatch 测试", "notification title")
	notifyTestCmd.Flags().StringVar(&notifyBody, "body", "✅ 推送配置正常", "notification body")
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.notifier.Enabled() {
		return fmt.Errorf("no notification sink configured (BARK_KEY / PUSHPLUS_TOKEN)")
	}

	a.notifier.Send(ctx, notifyTitle, notifyBody)
	fmt.Println("✅ Sent (failures are logged)")
	return nil
}
