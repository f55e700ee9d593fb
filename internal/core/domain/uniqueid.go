package domain

import (
	"fmt"
	"strings"
)

const (
	// SerialPlaceholder inside a caller-supplied unique id asks for allocation.
	SerialPlaceholder = "XXX"

	noYear     = "--"
	noCode     = "---"
	noLocation = "--"
)

type UniqueIDParts struct {
	Prefix        string
	FinancialYear string
	AssetCode     string
	LocationCode  string
}

// FormatUniqueID renders PREFIX/year/code/location/serial with a zero-padded serial.
func FormatUniqueID(p UniqueIDParts, serial int64) string {
	return fmt.Sprintf("%s/%s/%s/%s/%03d",
		p.Prefix,
		orDefault(strings.TrimSpace(p.FinancialYear), noYear),
		assetCode(p.AssetCode),
		orDefault(strings.TrimSpace(p.LocationCode), noLocation),
		serial,
	)
}

// NeedsAllocation is true for a blank id or one still carrying the placeholder.
func NeedsAllocation(uniqueID string) bool {
	id := strings.TrimSpace(uniqueID)
	return id == "" || strings.Contains(id, SerialPlaceholder)
}

func assetCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 3 {
		return noCode
	}
	for _, r := range code[:3] {
		if r < 'A' || r > 'Z' {
			return noCode
		}
	}
	return code[:3]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
