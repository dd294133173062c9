package runner

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/nxnative/core/internal/colorcache"
)

// ReplayLog writes a task's replay log back out to w, line by line, with a
// consistently colored task-id prefix. Used for the inline/non-TUI output
// path when a cache hit suppresses re-running the task.
func ReplayLog(logger hclog.Logger, colors *colorcache.ColorCache, w io.Writer, taskID string, logPath string) error {
	f, err := os.Open(logPath)
	if err != nil {
		if logger != nil {
			logger.Warn("error reading replay log", "task", taskID, "error", err)
		}
		return err
	}
	defer f.Close()

	prefix := colors.PrefixWithColor(taskID, taskID)
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		line := scan.Text()
		if line == "" {
			fmt.Fprintln(w, color.WhiteString(prefix))
			continue
		}
		fmt.Fprintf(w, "%s%s\n", prefix, line)
	}
	return scan.Err()
}
