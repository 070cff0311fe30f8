package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FrameKeyPrefix starts every frame key in a metadata document.
const FrameKeyPrefix = "FrameKey"

// ErrMalformedFrameKey is returned when a frame key string cannot be parsed.
var ErrMalformedFrameKey = errors.New("malformed frame key")

// FrameKey encodes a coordinate as the stable string identifier used in
// metadata documents: FrameKey-<position>-<frame>-<channel>-<slice>.
//
// The encoding is injective over any bounded grid: all four indices appear
// verbatim and the separator cannot occur inside a decimal integer.
func FrameKey(c Coordinate) string {
	return fmt.Sprintf("%s-%d-%d-%d-%d", FrameKeyPrefix, c.Position, c.Frame, c.Channel, c.Slice)
}

// ParseFrameKey decodes a frame key string produced by FrameKey.
//
// It also accepts the legacy 3-coordinate form FrameKey-<frame>-<channel>-<slice>
// written by old single-position acquisitions; for that form the returned
// coordinate has Position 0 and legacy is true. New keys are never written in
// the legacy form.
func ParseFrameKey(key string) (c Coordinate, legacy bool, err error) {
	rest, ok := strings.CutPrefix(key, FrameKeyPrefix+"-")
	if !ok {
		return Coordinate{}, false, fmt.Errorf("%w: %q", ErrMalformedFrameKey, key)
	}

	parts := strings.Split(rest, "-")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil || n < 0 {
			return Coordinate{}, false, fmt.Errorf("%w: %q", ErrMalformedFrameKey, key)
		}
		nums[i] = n
	}

	switch len(nums) {
	case 4:
		return Coordinate{Position: nums[0], Frame: nums[1], Channel: nums[2], Slice: nums[3]}, false, nil
	case 3:
		return Coordinate{Frame: nums[0], Channel: nums[1], Slice: nums[2]}, true, nil
	default:
		return Coordinate{}, false, fmt.Errorf("%w: %d coordinates in %q", ErrMalformedFrameKey, len(nums), key)
	}
}

// IsFrameKey reports whether key names a frame entry in a metadata document.
func IsFrameKey(key string) bool {
	return strings.HasPrefix(key, FrameKeyPrefix)
}
