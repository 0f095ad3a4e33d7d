package web

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/argon2"
)

const DefaultAuthFile = "auth.secret"

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Auth guards the administrative endpoints with Basic Auth backed by an
// Argon2id hash on disk. A missing auth file disables the guard; that is a
// development convenience and logged loudly.
type Auth struct {
	user   string
	hash   []byte
	logger zerolog.Logger
}

// LoadAuth reads credentials from AUTH_FILE (default: auth.secret next to
// the binary). Format: username:argon2idhash.
func LoadAuth(logger zerolog.Logger) (*Auth, error) {
	a := &Auth{logger: logger.With().Str("component", "auth").Logger()}

	authFile, err := authFilePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(authFile)
	if err != nil {
		if os.IsNotExist(err) {
			a.logger.Warn().Str("file", authFile).
				Msg("no auth file found, admin endpoints are UNPROTECTED (run hash-password to create one)")
			return a, nil
		}
		return nil, fmt.Errorf("read auth file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	a.user = parts[0]
	a.hash = []byte(parts[1])
	a.logger.Info().Str("user", a.user).Str("file", authFile).Msg("basic auth enabled for admin endpoints")
	return a, nil
}

func authFilePath() (string, error) {
	if f := os.Getenv("AUTH_FILE"); f != "" {
		return f, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// HashPassword creates an Argon2id hash of the password.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword verifies a password against an Argon2id hash.
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// RequireAuth enforces Basic Auth when an auth file is loaded.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No auth file loaded: dev mode, guard disabled.
		if a.hash == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			passMatch, err = VerifyPassword(pass, string(a.hash))
			if err != nil {
				a.logger.Error().Err(err).Msg("error verifying password")
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Sperrmuell-Kalender Admin"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			a.logger.Warn().Str("remote", r.RemoteAddr).Str("user", user).Msg("failed auth attempt")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CreateAuthFile writes the auth secret file (0400) for the given
// credentials, prompting before overwriting an existing file.
func CreateAuthFile(username, password string, overwrite bool) error {
	authFile, err := authFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(authFile); err == nil {
		if !overwrite {
			fmt.Printf("Auth file already exists: %s\n", authFile)
			fmt.Print("Overwrite? (y/N): ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return fmt.Errorf("aborted")
			}
		}
		// Delete existing file (necessary because we use 0400 read-only)
		if err := os.Remove(authFile); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(authFile, []byte(content), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	fmt.Printf("Auth file created: %s (mode: 0400 read-only)\n", authFile)
	fmt.Printf("   Username: %s\n", username)
	return nil
}
