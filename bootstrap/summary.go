package bootstrap

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/modelkit/config"
	"github.com/kbukum/modelkit/factory"
	"github.com/kbukum/modelkit/logger"
)

// OverrideStatus records the outcome of one configured override.
type OverrideStatus struct {
	Family      string
	Alternative string
	Applied     bool
	// Reason is the error code when the override was skipped.
	Reason string
}

// Summary collects start-up information and prints it once the
// application is ready.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	overrides       []OverrideStatus
	out             io.Writer
}

// NewSummary creates a summary that prints to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetOutput redirects the summary.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records how long start-up took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackOverride records an override. An empty reason means it was applied.
func (s *Summary) TrackOverride(o config.Override, reason string) {
	s.overrides = append(s.overrides, OverrideStatus{
		Family:      o.Family,
		Alternative: o.Alternative,
		Applied:     reason == "",
		Reason:      reason,
	})
}

// Overrides returns the recorded override outcomes in configuration order.
func (s *Summary) Overrides() []OverrideStatus {
	return append([]OverrideStatus(nil), s.overrides...)
}

// DisplaySummary prints the model families and override outcomes, and logs
// a one-line digest.
func (s *Summary) DisplaySummary(families []factory.FamilyInfo, log *logger.Logger) {
	w := s.out
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	fmt.Fprintf(w, "📦 Model families (%d)\n", len(families))
	if len(families) == 0 {
		fmt.Fprintf(w, "   └── No families registered\n")
	}
	overridden := 0
	for i, f := range families {
		prefix := treePrefix(i, len(families))
		icon := "✅"
		if f.Overridden {
			icon = "🔁"
			overridden++
		}
		fmt.Fprintf(w, "   %s %s %s → %s", prefix, icon, f.Key, f.ActiveType)
		if f.Overridden {
			fmt.Fprintf(w, " (default %s)", f.DefaultType)
		}
		fmt.Fprintf(w, "\n")
		if len(f.Alternatives) > 0 {
			indent := "│  "
			if i == len(families)-1 {
				indent = "   "
			}
			fmt.Fprintf(w, "   %s   alternatives: %s\n", indent, strings.Join(f.Alternatives, ", "))
		}
	}

	if len(s.overrides) > 0 {
		fmt.Fprintf(w, "\n⚙️  Overrides\n")
		for i, o := range s.overrides {
			prefix := treePrefix(i, len(s.overrides))
			if o.Applied {
				fmt.Fprintf(w, "   %s ✅ %s = %s\n", prefix, o.Family, o.Alternative)
			} else {
				fmt.Fprintf(w, "   %s ⚠️  %s = %s skipped (%s)\n", prefix, o.Family, o.Alternative, o.Reason)
			}
		}
	}
	fmt.Fprintf(w, "\n")

	if log != nil {
		log.Info("Startup summary", map[string]interface{}{
			"families":   len(families),
			"overridden": overridden,
			"overrides":  len(s.overrides),
			"startup_ms": s.startupDuration.Milliseconds(),
		})
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
