package codec

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"ravm/internal/instruction"
)

// Describe renders a human-readable one-line summary of an archive for
// debug logging (spec §4.7 mentions no such output format itself; this
// exists purely as an operator-facing diagnostic, never part of the
// wire format). cmd/ravm calls it after a successful Decode when run
// with -v. Counts are totalled recursively across child sets.
func Describe(profile Profile, manifest Manifest, root *instruction.InstructionSet, byteSize int) string {
	total := countInstructions(root)
	return fmt.Sprintf(
		"archive: profile=%s size=%s instructions=%s linked-modules=%d",
		profile, humanize.Bytes(uint64(byteSize)), humanize.Comma(int64(total)), len(manifest.ModuleIdentities),
	)
}

func countInstructions(set *instruction.InstructionSet) int {
	if set == nil {
		return 0
	}
	total := set.Size()
	for i := 0; i < set.Size(); i++ {
		ins, _ := set.At(i)
		if ins.ScopeInsSet != nil {
			total += countInstructions(ins.ScopeInsSet)
		}
	}
	return total
}
