package place

import (
	"context"
	"strings"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"
	"github.com/mcnijman/go-emailaddress"
)

const verifyTimeout = 3 * time.Second

// VerifyEmail performs fast deliverability verification on a scraped email.
// Policy: DNS/MX-level check with a short timeout budget; a timeout or any
// verifier error fails closed (false) so a slow mail server never stalls the
// resolve path.
func VerifyEmail(ctx context.Context, email string) bool {
	raw := strings.TrimSpace(email)
	if raw == "" {
		return false
	}

	// quick syntax parse to avoid unnecessary verifier calls
	if _, err := emailaddress.Parse(raw); err != nil {
		return false
	}

	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	v := emailverifier.NewVerifier()

	type outMsg struct{ deliverable bool }

	ch := make(chan outMsg, 1)

	go func() {
		defer func() { _ = recover() }()

		res, err := v.Verify(raw)
		if err != nil || res == nil {
			ch <- outMsg{}

			return
		}

		deliverable := res.Syntax.Valid && res.HasMxRecords
		if res.SMTP != nil && res.SMTP.Deliverable {
			deliverable = true
		}

		if res.Reachable == "yes" {
			deliverable = true
		}

		ch <- outMsg{deliverable: deliverable}
	}()

	select {
	case <-vctx.Done():
		return false
	case out := <-ch:
		return out.deliverable
	}
}
