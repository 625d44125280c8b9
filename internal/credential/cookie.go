package credential

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
)

// Cookie names and lifetimes used by the cookie backend.
const (
	CookieToken = "iopt"
	CookieRole  = "iopt-as"

	CookieLifetime = 500 * 24 * time.Hour
	cookieExpireBy = 190 * 24 * time.Hour
)

// CookieBackend keeps the credential in a cookie jar file with one
// Set-Cookie line per cookie. Cookies not owned by this backend are kept.
type CookieBackend struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// CookieOption configures a CookieBackend.
type CookieOption func(*CookieBackend)

// WithClock overrides the time source used for cookie expiry.
func WithClock(now func() time.Time) CookieOption {
	return func(b *CookieBackend) { b.now = now }
}

// NewCookieBackend creates a cookie backend over the jar at path.
func NewCookieBackend(path string, opts ...CookieOption) *CookieBackend {
	b := &CookieBackend{path: path, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultJarPath returns the cookie jar location inside dir.
func DefaultJarPath(dir string) string {
	return filepath.Join(dir, "cookies")
}

// Name implements Backend.
func (b *CookieBackend) Name() string { return "cookie" }

// Write implements Backend. A token or role that is not a valid cookie
// value is refused and any cookies from an earlier login are expired, so
// the jar never holds a credential that differs from the one saved.
func (b *CookieBackend) Write(ctx context.Context, c Credential) error {
	if !cookieValue(c.Token) || !cookieValue(c.Role) {
		if err := b.Erase(ctx); err != nil {
			return err
		}
		return errors.NewCredentialBackendError(b.Name(), "credential contains characters a cookie cannot carry")
	}
	expires := b.now().Add(CookieLifetime)
	return b.set(
		&http.Cookie{Name: CookieToken, Value: c.Token, Path: "/", Expires: expires},
		&http.Cookie{Name: CookieRole, Value: c.Role, Path: "/", Expires: expires},
	)
}

// Erase implements Backend. The cookies are rewritten with an expiry in the
// past, which is how a browser deletes them.
func (b *CookieBackend) Erase(_ context.Context) error {
	expired := b.now().Add(-cookieExpireBy)
	return b.set(
		&http.Cookie{Name: CookieToken, Value: "", Path: "/", Expires: expired},
		&http.Cookie{Name: CookieRole, Value: "", Path: "/", Expires: expired},
	)
}

// Read implements Backend.
func (b *CookieBackend) Read(_ context.Context) (Credential, error) {
	header, err := b.Header()
	if err != nil {
		return Credential{}, err
	}

	token := LookupCookie(header, CookieToken)
	if !Usable(token) {
		return Credential{}, nil
	}
	return Credential{Token: token, Role: LookupCookie(header, CookieRole)}.normalize(), nil
}

// Header renders the live cookies of the jar as a Cookie request header.
func (b *CookieBackend) Header() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	jar, err := b.load()
	if err != nil {
		return "", err
	}

	now := b.now()
	parts := make([]string, 0, len(jar))
	for _, c := range jar {
		if expired(c, now) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// LookupCookie returns the value of name in a Cookie header string, or "".
// The header is parsed with net/http; a header that does not parse is
// scanned the way older clients did: each "; " separated part has leading
// spaces trimmed and the first part starting with "name=" wins.
func LookupCookie(header, name string) string {
	if cookies, err := http.ParseCookie(header); err == nil {
		for _, c := range cookies {
			if c.Name == name {
				return c.Value
			}
		}
		return ""
	}
	return scanCookie(header, name)
}

func scanCookie(header, name string) string {
	prefix := name + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimLeft(part, " ")
		if strings.HasPrefix(part, prefix) {
			return part[len(prefix):]
		}
	}
	return ""
}

// cookieValue reports whether v is made of RFC 6265 cookie-octets only.
func cookieValue(v string) bool {
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c <= ' ', c >= 0x7f, c == '"', c == ',', c == ';', c == '\\':
			return false
		}
	}
	return true
}

func expired(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// set replaces the named cookies in the jar and prunes expired ones other
// than those being written.
func (b *CookieBackend) set(cookies ...*http.Cookie) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	jar, err := b.load()
	if err != nil {
		return err
	}

	replaced := make(map[string]bool, len(cookies))
	for _, c := range cookies {
		replaced[c.Name] = true
	}

	now := b.now()
	kept := make([]*http.Cookie, 0, len(jar)+len(cookies))
	for _, c := range jar {
		if replaced[c.Name] || expired(c, now) {
			continue
		}
		kept = append(kept, c)
	}
	kept = append(kept, cookies...)

	return b.store(kept)
}

func (b *CookieBackend) load() ([]*http.Cookie, error) {
	data, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read cookie jar", err)
	}

	var jar []*http.Cookie
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := http.ParseSetCookie(line)
		if err != nil {
			jar = append(jar, rawCookie(line))
			continue
		}
		jar = append(jar, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read cookie jar", err)
	}
	return jar, nil
}

// rawCookie keeps a jar line net/http refuses, so a hand-edited jar still
// reads through the legacy scan.
func rawCookie(line string) *http.Cookie {
	pair, _, _ := strings.Cut(line, ";")
	name, value, _ := strings.Cut(pair, "=")
	return &http.Cookie{Name: strings.TrimSpace(name), Value: value, Raw: line}
}

func (b *CookieBackend) store(jar []*http.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create cookie jar directory", err)
	}

	var buf bytes.Buffer
	for _, c := range jar {
		if c.Raw != "" {
			buf.WriteString(c.Raw)
		} else {
			buf.WriteString(c.String())
		}
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(b.path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write cookie jar", err)
	}
	return nil
}
