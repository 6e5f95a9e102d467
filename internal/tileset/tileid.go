package tileset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTileID is returned by ParseTileID for malformed ids.
var ErrInvalidTileID = errors.New("invalid tile id format")

// TileID addresses one tile as uuid.zoom.x[.y]. Y is present for 2-D
// (matrix) tiles and absent for 1-D tracks.
type TileID struct {
	UUID string
	Zoom int
	X    int
	Y    int
	HasY bool
}

// ParseTileID splits a tile id on '.' and validates the numeric parts.
func ParseTileID(s string) (TileID, error) {
	parts := strings.Split(s, ".")
	if len(parts) < 3 || len(parts) > 4 || parts[0] == "" {
		return TileID{}, fmt.Errorf("%w: %s", ErrInvalidTileID, s)
	}

	nums := make([]int, 0, 3)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return TileID{}, fmt.Errorf("%w: %s", ErrInvalidTileID, s)
		}
		nums = append(nums, n)
	}

	id := TileID{UUID: parts[0], Zoom: nums[0], X: nums[1]}
	if len(nums) == 3 {
		id.Y = nums[2]
		id.HasY = true
	}
	return id, nil
}

// TileUUID returns the uuid segment of a tile id with at least three
// parts, without validating the rest. It lets callers report an unknown
// tileset ahead of a malformed zoom or position.
func TileUUID(s string) (string, bool) {
	if strings.Count(s, ".") < 2 {
		return "", false
	}
	return s[:strings.Index(s, ".")], true
}

// String formats the id back to uuid.zoom.x[.y].
func (id TileID) String() string {
	if id.HasY {
		return fmt.Sprintf("%s.%d.%d.%d", id.UUID, id.Zoom, id.X, id.Y)
	}
	return fmt.Sprintf("%s.%d.%d", id.UUID, id.Zoom, id.X)
}
