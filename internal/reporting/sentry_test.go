package reporting

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	t.Run("connection reset by peer", func(t *testing.T) {
		t.Parallel()

		err := `dial upstream: Get "https://origin.example.com/cached/1": read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:443: read: connection reset by peer`
		want := `dial upstream: Get "https://origin.example.com/cached/1": read tcp <host>-><host>: read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("fingerprint", func(t *testing.T) {
		t.Parallel()

		err := `handler panicked for 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08: boom`
		want := `handler panicked for <fingerprint>: boom`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("uuid", func(t *testing.T) {
		t.Parallel()

		err := `request 0b6c8f4e-2d1a-4c3b-9e8f-7a6b5c4d3e2f failed`
		want := `request <uuid> failed`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("query", func(t *testing.T) {
		t.Parallel()

		err := `Get "http://origin/cached/1?query=abc&x=1": context deadline exceeded`
		want := `Get "http://origin/cached/1?<query>": context deadline exceeded`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("misc ipv6", func(t *testing.T) {
		t.Parallel()

		ips := []string{
			`1:2:3:4:5:6:7:8`,
			`1::`,
			`1::8`,
			`1:2:3:4:5::7:8`,
			`::2:3:4:5:6:7:8`,
			`::8`,
			`::`,
		}
		for _, ip := range ips {
			t.Run(ip, func(t *testing.T) {
				t.Parallel()

				require.Equal(t, "<host>", sanitizeError(fmt.Sprintf("[%s]:1234", ip)))
			})
		}
	})
}
