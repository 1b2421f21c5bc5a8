package history

import "database/sql"
import "encoding/hex"
import "math"

func nullable(x float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: x, Valid: !math.IsNaN(x) && !math.IsInf(x, 0)}
}

func hexString(b [32]byte) string {
	return hex.EncodeToString(b[:])
}

func parseHex(s string) (b [32]byte) {
	data, _ := hex.DecodeString(s)
	copy(b[:], data)
	return
}
