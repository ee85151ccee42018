package internal_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/helpdeskhq/helpdesk-portal/internal"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("Principal context helpers", func() {
	It("round-trips the principal through a context", func() {
		p := &internal.Principal{
			ID:        42,
			Role:      "admin",
			FirstName: "Ada",
			LastName:  "Petrova",
		}
		ctx := internal.ContextWithPrincipal(context.Background(), p)

		got, ok := internal.PrincipalFromContext(ctx)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(p))
	})

	It("reports absence on a bare context", func() {
		got, ok := internal.PrincipalFromContext(context.Background())
		Expect(ok).To(BeFalse())
		Expect(got).To(BeNil())
	})
})

var _ = Describe("WithTimeout", func() {
	It("applies the requested duration", func() {
		ctx, cancel := internal.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deadline, ok := ctx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(time.Until(deadline)).To(BeNumerically(">", 50*time.Second))
	})

	It("falls back to the default when the duration is not positive", func() {
		ctx, cancel := internal.WithTimeout(context.Background(), 0)
		defer cancel()

		deadline, ok := ctx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(time.Until(deadline)).To(BeNumerically("<=", 5*time.Second))
	})
})
