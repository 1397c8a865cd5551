package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook signatures use the scheme common to hosted payment providers:
// the header carries "t=<unix>,v1=<hex>" where v1 is the HMAC-SHA256 of
// "<t>.<payload>" under the shared webhook secret.

const signatureTolerance = 5 * time.Minute

// Sign produces a signature header for payload at time ts. Exposed for the
// webhook tests and for local gateway simulation.
func Sign(secret string, ts time.Time, payload []byte) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", t, payload)
	return "t=" + t + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

// verifySignature checks header against payload. It fails closed: any parse
// problem, stale timestamp or digest mismatch is ErrBadSignature.
func verifySignature(secret string, header string, payload []byte, now time.Time) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return ErrBadSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if d := now.Sub(time.Unix(unix, 0)); d > signatureTolerance || d < -signatureTolerance {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, payload)
	want := mac.Sum(nil)
	got, err := hex.DecodeString(sig)
	if err != nil || !hmac.Equal(want, got) {
		return ErrBadSignature
	}
	return nil
}
