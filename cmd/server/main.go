// storyloom-server hosts the game over SSH. Every connection gets its
// own independent session with a private data directory, so two players
// never share saves or story documents. Build:
//
//	go build -o storyloom-server ./cmd/server
//
// Usage:
//
//	./storyloom-server [--port 2222] [--key server_host_key]
//
// Connect:
//
//	ssh -p 2222 <name>@<host>
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
	xssh "golang.org/x/crypto/ssh"

	"storyloom/assets"
	"storyloom/internal/ai"
	"storyloom/internal/config"
	"storyloom/internal/game"
	"storyloom/internal/sshtty"
)

func main() {
	port := flag.Int("port", 2222, "SSH listen port")
	keyFile := flag.String("key", "server_host_key", "PEM host key path (generated if absent)")
	flag.Parse()

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration failed")
	}

	var narrator ai.Narrator
	if cfg.AIEnabled() {
		client, err := ai.NewClient(ai.Config{
			APIKey:       cfg.AIAPIKey,
			BaseURL:      cfg.AIBaseURL,
			Model:        cfg.AIModel,
			SystemPrompt: assets.NarratorPrompt,
			Timeout:      cfg.AITimeout,
			MaxRetries:   cfg.AIMaxRetries,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("story agent setup failed")
		}
		narrator = client
	}

	signer, err := loadOrCreateHostKey(*keyFile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("host key setup failed")
	}

	h := &host{cfg: cfg, narrator: narrator, log: log}
	srv := &gossh.Server{
		Addr:        fmt.Sprintf(":%d", *port),
		Handler:     h.handleSession,
		PtyCallback: func(_ gossh.Context, _ gossh.Pty) bool { return true },
		HostSigners: []gossh.Signer{signer},
	}

	log.Info().Int("port", *port).Msg("storyloom SSH server listening")
	log.Fatal().Err(srv.ListenAndServe()).Msg("server stopped")
}

// host runs one game per SSH connection.
type host struct {
	cfg      *config.Config
	narrator ai.Narrator
	log      zerolog.Logger

	// termMu serializes os.Setenv("TERM") around screen creation; tcell
	// reads TERM from the process environment.
	termMu sync.Mutex
}

// allowedTerms are the terminal types we trust TERM to name. Anything
// else falls back to xterm-256color.
var allowedTerms = map[string]bool{
	"xterm":                 true,
	"xterm-256color":        true,
	"tmux":                  true,
	"tmux-256color":         true,
	"screen":                true,
	"screen-256color":       true,
	"linux":                 true,
	"vt100":                 true,
	"rxvt-unicode-256color": true,
}

func (h *host) handleSession(s gossh.Session) {
	pty, winCh, hasPTY := s.Pty()
	if !hasPTY {
		fmt.Fprintln(s, "storyloom needs a PTY. Connect with: ssh -t -p 2222 <host>")
		return
	}

	user := sanitizeName(s.User())
	if user == "" {
		user = "guest"
	}
	log := h.log.With().Str("user", user).Str("addr", s.RemoteAddr().String()).Logger()

	term := "xterm-256color"
	for _, env := range s.Environ() {
		if v, ok := strings.CutPrefix(env, "TERM="); ok && allowedTerms[v] {
			term = v
			break
		}
	}

	tty := sshtty.New(s, pty, winCh)
	h.termMu.Lock()
	_ = os.Setenv("TERM", term)
	screen, err := tcell.NewTerminfoScreenFromTty(tty)
	h.termMu.Unlock()
	if err != nil {
		fmt.Fprintf(s, "Terminal setup failed: %v\n", err)
		return
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(s, "Screen init failed: %v\n", err)
		return
	}
	defer screen.Fini()

	// Each player gets a private slice of the data directory keyed by
	// their SSH username.
	base, err := game.DataDir(h.cfg)
	if err != nil {
		log.Error().Err(err).Msg("resolving data dir failed")
		return
	}
	cfg := *h.cfg
	cfg.DataDir = filepath.Join(base, "players", user)

	g, err := game.New(screen, &cfg, h.narrator, log)
	if err != nil {
		log.Error().Err(err).Msg("session setup failed")
		return
	}
	log.Info().Msg("session started")
	if err := g.Run(); err != nil {
		log.Error().Err(err).Msg("session ended with error")
		return
	}
	log.Info().Msg("session ended")
}

// sanitizeName strips control characters and path separators from an
// SSH username and caps it at 16 bytes so it is safe as a directory
// name.
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) || r == '/' || r == '\\' || r == '.' {
			continue
		}
		if sb.Len()+len(string(r)) > 16 {
			break
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// loadOrCreateHostKey loads a PEM private key, generating and
// persisting a fresh ed25519 key when the file is absent.
func loadOrCreateHostKey(path string, log zerolog.Logger) (gossh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		signer, err := xssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("loaded host key")
		return signer, nil
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	signer, err := xssh.NewSignerFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("wrap host key: %w", err)
	}
	pemBlock, err := xssh.MarshalPrivateKey(key, "storyloom server")
	if err == nil {
		if werr := os.WriteFile(path, pem.EncodeToMemory(pemBlock), 0o600); werr != nil {
			log.Warn().Err(werr).Str("path", path).Msg("host key not persisted")
		} else {
			log.Info().Str("path", path).Msg("generated host key")
		}
	}
	return signer, nil
}
