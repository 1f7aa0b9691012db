package pricecache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/wonny/folio/internal/contracts"
)

// Fingerprint identifies a price table by {ticker set, start date}.
// md5(sorted(tickers) joined "," + "|" + YYYY-MM-DD + "|" + salt)
// ⭐ 순서/중복 무관: 같은 집합이면 같은 fingerprint
func Fingerprint(tickers []string, start time.Time) string {
	return FingerprintWithSalt(tickers, start, "")
}

// FingerprintWithSalt is Fingerprint with an explicit salt (캐시 무효화용)
func FingerprintWithSalt(tickers []string, start time.Time, salt string) string {
	key := strings.Join(contracts.SortedUnique(tickers), ",") +
		"|" + start.Format(contracts.DateLayout) +
		"|" + salt

	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
