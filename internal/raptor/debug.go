package raptor

import (
	"log/slog"

	"github.com/davecgh/go-spew/spew"
)

// DumpState renders a round's labels and parent pointers with
// spew.Sdump for engineers inspecting a query gone wrong, mirroring the
// lineage's webui debug-state dump handler. It is never wired to an HTTP
// surface here since that is out of scope; callers gate it behind their own
// debug flag.
func DumpState(logger *slog.Logger, res *Result, round int) {
	if logger == nil || res == nil || round < 0 || round > res.MaxRound() {
		return
	}
	dump := spew.Sdump(res.Rounds[round])
	logger.Debug("raptor_round_state", slog.Int("round", round), slog.String("dump", dump))
}
