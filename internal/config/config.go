package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/crypto/scrypt"
)

const (
	configDirName  = "traymenu"
	configFileName = "config.enc"
	saltSize       = 16
	nonceSize      = 12
)

// ErrNotFound reports a lookup for an item id that is not configured.
var ErrNotFound = errors.New("config: item not found")

// MenuItemType represents the supported menu item types.
type MenuItemType string

const (
	MenuItemText    MenuItemType = "text"
	MenuItemTitle   MenuItemType = "title"
	MenuItemDivider MenuItemType = "divider"
	MenuItemCommand MenuItemType = "command"
	MenuItemURL     MenuItemType = "url"
	MenuItemMenu    MenuItemType = "menu"
)

// MenuItem represents a single menu entry.
type MenuItem struct {
	ID          string       `json:"id" yaml:"id"`
	Order       int          `json:"order" yaml:"order"`
	Type        MenuItemType `json:"type" yaml:"type"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Command     string       `json:"command,omitempty" yaml:"command,omitempty"`
	Arguments   []string     `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	WorkingDir  string       `json:"workingDir,omitempty" yaml:"workingDir,omitempty"`
	URL         string       `json:"url,omitempty" yaml:"url,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	ParentID    string       `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Checkable   bool         `json:"checkable,omitempty" yaml:"checkable,omitempty"`
	Checked     bool         `json:"checked,omitempty" yaml:"checked,omitempty"`
	Group       string       `json:"group,omitempty" yaml:"group,omitempty"`
	Enabled     *bool        `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Hidden      bool         `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Icon        string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	Shortcut    string       `json:"shortcut,omitempty" yaml:"shortcut,omitempty"`
	CreatedUTC  string       `json:"createdUtc" yaml:"createdUtc,omitempty"`
	UpdatedUTC  string       `json:"updatedUtc" yaml:"updatedUtc,omitempty"`
}

// IsEnabled reports the effective enabled flag; items are enabled unless
// explicitly disabled.
func (m MenuItem) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Validate checks the fields each item type requires.
func (m MenuItem) Validate() error {
	switch m.Type {
	case MenuItemText, MenuItemTitle, MenuItemMenu:
		if m.Label == "" {
			return fmt.Errorf("%s items require a label", m.Type)
		}
	case MenuItemCommand:
		if m.Label == "" {
			return errors.New("command items require a label")
		}
		if m.Command == "" {
			return errors.New("command items require a command")
		}
	case MenuItemURL:
		if m.Label == "" {
			return errors.New("URL items require a label")
		}
		if m.URL == "" {
			return errors.New("URL items require a url")
		}
	case MenuItemDivider:
		// nothing required
	default:
		return fmt.Errorf("unsupported menu type: %s", m.Type)
	}
	if m.Checked && !m.Checkable {
		return errors.New("checked items must be checkable")
	}
	if m.Group != "" && !m.Checkable {
		return errors.New("grouped items must be checkable")
	}
	return nil
}

// Config represents the persisted configuration file.
type Config struct {
	Items []MenuItem `json:"items" yaml:"items"`
}

// Children returns the items whose parent is parentID ordered by Order, then
// by creation time.
func (c *Config) Children(parentID string) []MenuItem {
	var out []MenuItem
	for _, item := range c.Items {
		if item.ParentID == parentID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedUTC < out[j].CreatedUTC
	})
	return out
}

// Find returns the item with the given id.
func (c *Config) Find(id string) (MenuItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

// Upsert replaces the item with the same id or appends it.
func (c *Config) Upsert(item MenuItem) {
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			c.Items[i] = item
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Delete removes the item and every descendant and returns how many items were
// removed.
func (c *Config) Delete(id string) (int, error) {
	if _, ok := c.Find(id); !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	doomed := map[string]bool{id: true}
	for grew := true; grew; {
		grew = false
		for _, item := range c.Items {
			if !doomed[item.ID] && doomed[item.ParentID] {
				doomed[item.ID] = true
				grew = true
			}
		}
	}
	filtered := make([]MenuItem, 0, len(c.Items))
	for _, item := range c.Items {
		if !doomed[item.ID] {
			filtered = append(filtered, item)
		}
	}
	removed := len(c.Items) - len(filtered)
	c.Items = filtered
	return removed, nil
}

// Validate checks every item and that parents exist and are menus.
func (c *Config) Validate() error {
	seen := make(map[string]MenuItem, len(c.Items))
	for _, item := range c.Items {
		if item.ID == "" {
			return errors.New("item without id")
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate item id %s", item.ID)
		}
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
		seen[item.ID] = item
	}
	for _, item := range c.Items {
		if item.ParentID == "" {
			continue
		}
		parent, ok := seen[item.ParentID]
		if !ok {
			return fmt.Errorf("item %s: unknown parent %s", item.ID, item.ParentID)
		}
		if parent.Type != MenuItemMenu {
			return fmt.Errorf("item %s: parent %s is not a menu", item.ID, item.ParentID)
		}
	}
	return nil
}

// Path returns the resolved configuration file path.
func Path() (string, error) {
	if custom := os.Getenv("TRAYMENU_CONFIG_PATH"); custom != "" {
		return custom, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

// Store reads and writes the encrypted configuration on a file system.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore returns a store for path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// DefaultStore returns a store for Path on the operating system file system.
func DefaultStore() (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return NewStore(afero.NewOsFs(), path), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load retrieves the encrypted configuration using the provided passphrase. A
// missing file yields an empty configuration.
func (s *Store) Load(passphrase string) (*Config, error) {
	if passphrase == "" {
		return nil, errors.New("missing passphrase for configuration decryption")
	}

	raw, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data, err := decrypt(raw, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save persists the configuration encrypted with the provided passphrase.
func (s *Store) Save(cfg *Config, passphrase string) error {
	if passphrase == "" {
		return errors.New("missing passphrase for configuration encryption")
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	data, err := encrypt(raw, passphrase)
	if err != nil {
		return fmt.Errorf("encrypt config: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}

	tempFile := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tempFile, data, 0o600); err != nil {
		return fmt.Errorf("write encrypted config: %w", err)
	}
	return s.fs.Rename(tempFile, s.path)
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	if len(ciphertext) < saltSize+nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	salt := ciphertext[:saltSize]
	nonce := ciphertext[saltSize : saltSize+nonceSize]
	payload := ciphertext[saltSize+nonceSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, payload, nil)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	const (
		keyLength = 32
		n         = 1 << 15
		r         = 8
		p         = 1
	)

	key, err := scrypt.Key([]byte(passphrase), salt, n, r, p, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
