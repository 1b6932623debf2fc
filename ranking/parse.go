// Package ranking computes finishing order within a category from the
// completion times marshals record.
package ranking

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ParseCompletionTime converts a marshal-entered completion time into
// elapsed milliseconds. Three shapes are accepted, picked by the number
// of colon-separated segments:
//
//	"1:02:03.450" → HH:MM:SS.fraction
//	"20:15"       → MM:SS
//	"45.2"        → SS.fraction
//
// The fraction is sub-second precision, padded or truncated to
// milliseconds. A malformed segment does not fail the call: it is logged
// and the whole value degrades to 0 so one bad entry cannot block
// recalculating the rest of the category.
func ParseCompletionTime(s string) int64 {
	segs := strings.Split(strings.TrimSpace(s), ":")
	if len(segs) > 3 {
		zap.L().Warn("completion time has too many segments", zap.String("value", s))
		return 0
	}
	// Left-pad to HH:MM:SS so all three shapes share one code path.
	for len(segs) < 3 {
		segs = append([]string{"0"}, segs...)
	}

	hours, err := strconv.ParseUint(segs[0], 10, 32)
	if err != nil {
		zap.L().Warn("unparseable hours segment", zap.String("value", s))
		return 0
	}
	minutes, err := strconv.ParseUint(segs[1], 10, 32)
	if err != nil {
		zap.L().Warn("unparseable minutes segment", zap.String("value", s))
		return 0
	}

	secPart := segs[2]
	frac := ""
	hasFrac := false
	if i := strings.IndexByte(secPart, '.'); i >= 0 {
		hasFrac = true
		frac = secPart[i+1:]
		secPart = secPart[:i]
	}
	seconds, err := strconv.ParseUint(secPart, 10, 32)
	if err != nil {
		zap.L().Warn("unparseable seconds segment", zap.String("value", s))
		return 0
	}
	if hasFrac && frac == "" {
		// A dot with nothing after it, e.g. "45.".
		zap.L().Warn("empty fraction segment", zap.String("value", s))
		return 0
	}

	millis := uint64(0)
	if frac != "" {
		// Right-pad/truncate to exactly three digits: ".5" is 500ms, ".4509" is 450ms.
		padded := (frac + "000")[:3]
		millis, err = strconv.ParseUint(padded, 10, 32)
		if err != nil {
			zap.L().Warn("unparseable fraction segment", zap.String("value", s))
			return 0
		}
	}

	return int64(((hours*60+minutes)*60+seconds)*1000 + millis)
}
