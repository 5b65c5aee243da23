package browser

import "testing"

func TestFindChromeBinaryIgnoresEnv(t *testing.T) {
	const bogus = "/nonexistent/chrome-from-env"
	t.Setenv("CHROME_BIN", bogus)
	if got := findChromeBinary(); got == bogus {
		t.Errorf("findChromeBinary() = %q; want the CHROME_BIN env var ignored", got)
	}
}
