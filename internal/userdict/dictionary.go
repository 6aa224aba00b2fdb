// Package userdict manages the personal word list that extends both the
// acronym fuser and the grammar corrector's dictionary: application words
// the user has explicitly added, plus (if present) the system Hunspell
// personal dictionary, both hot-reloadable via fsnotify.
package userdict

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Dictionary holds application-specific words (read-write, persisted to
// disk) plus an optional system Hunspell personal dictionary (read-only,
// but reloadable).
type Dictionary struct {
	mu sync.RWMutex

	appWords    map[string]struct{}
	systemWords map[string]struct{}

	appWordsPath   string
	systemDictPath string // empty if none found

	log *logrus.Entry
}

// New creates a Dictionary, loading app words from appWordsPath (created
// empty if absent) and, if hunspellPath resolves to an existing file, the
// system Hunspell personal dictionary.
func New(appWordsPath, hunspellPath string) (*Dictionary, error) {
	if err := os.MkdirAll(filepath.Dir(appWordsPath), 0o755); err != nil {
		return nil, fmt.Errorf("userdict: create app words directory: %w", err)
	}

	appWords, err := loadWordLines(appWordsPath, false)
	if err != nil {
		return nil, fmt.Errorf("userdict: load app words: %w", err)
	}

	systemDictPath := ""
	systemWords := map[string]struct{}{}
	if hunspellPath != "" {
		if _, err := os.Stat(hunspellPath); err == nil {
			systemDictPath = hunspellPath
			systemWords, err = loadWordLines(hunspellPath, true)
			if err != nil {
				systemWords = map[string]struct{}{}
			}
		}
	}

	return &Dictionary{
		appWords:       appWords,
		systemWords:    systemWords,
		appWordsPath:   appWordsPath,
		systemDictPath: systemDictPath,
		log:            logrus.WithField("component", "userdict"),
	}, nil
}

// DefaultAppWordsPath returns the conventional per-user app words path
// under the user's XDG data directory.
func DefaultAppWordsPath() (string, error) {
	dataDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, ".local", "share", "dictd", "user_words.txt"), nil
}

// DefaultHunspellPath resolves ~/.hunspell_<locale>, trying DICTIONARY,
// LC_ALL, LC_MESSAGES, then LANG, and falling back to ~/.hunspell_default.
func DefaultHunspellPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	for _, envVar := range []string{"DICTIONARY", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		locale := strings.SplitN(val, ".", 2)[0]
		path := filepath.Join(home, ".hunspell_"+locale)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	fallback := filepath.Join(home, ".hunspell_default")
	if _, err := os.Stat(fallback); err == nil {
		return fallback
	}
	return ""
}

// Contains reports whether word (case-insensitive) is in either word list.
func (d *Dictionary) Contains(word string) bool {
	lower := strings.ToLower(word)
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.appWords[lower]; ok {
		return true
	}
	_, ok := d.systemWords[lower]
	return ok
}

// Add inserts word into the app dictionary and persists it to disk.
func (d *Dictionary) Add(word string) error {
	lower := strings.ToLower(strings.TrimSpace(word))
	if lower == "" {
		return nil
	}
	d.mu.Lock()
	d.appWords[lower] = struct{}{}
	d.mu.Unlock()
	return d.save()
}

// Remove deletes word from the app dictionary and persists the change.
func (d *Dictionary) Remove(word string) error {
	lower := strings.ToLower(word)
	d.mu.Lock()
	delete(d.appWords, lower)
	d.mu.Unlock()
	return d.save()
}

// Words returns a sorted snapshot of the app dictionary.
func (d *Dictionary) Words() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	words := make([]string, 0, len(d.appWords))
	for w := range d.appWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// AllWords returns a snapshot combining both word lists, suitable for
// feeding the grammar corrector's personal dictionary and the acronym
// fuser's extra-acronym set.
func (d *Dictionary) AllWords() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	words := make([]string, 0, len(d.appWords)+len(d.systemWords))
	for w := range d.appWords {
		words = append(words, w)
	}
	for w := range d.systemWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// ReloadAppWords re-reads the app words file from disk.
func (d *Dictionary) ReloadAppWords() error {
	words, err := loadWordLines(d.appWordsPath, false)
	if err != nil {
		return fmt.Errorf("userdict: reload app words: %w", err)
	}
	d.mu.Lock()
	d.appWords = words
	d.mu.Unlock()
	return nil
}

// ReloadSystemWords re-reads the system Hunspell dictionary, if configured.
func (d *Dictionary) ReloadSystemWords() error {
	if d.systemDictPath == "" {
		return nil
	}
	words, err := loadWordLines(d.systemDictPath, true)
	if err != nil {
		return fmt.Errorf("userdict: reload system words: %w", err)
	}
	d.mu.Lock()
	d.systemWords = words
	d.mu.Unlock()
	return nil
}

func (d *Dictionary) save() error {
	words := d.Words()
	content := strings.Join(words, "\n")
	return os.WriteFile(d.appWordsPath, []byte(content), 0o644)
}

func loadWordLines(path string, isHunspell bool) (map[string]struct{}, error) {
	words := map[string]struct{}{}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return words, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isHunspell {
			// Hunspell personal dictionaries lead with a word count line
			// (conventionally starting with '*' in some variants) and use
			// "word/affix" flag suffixes we don't care about.
			if strings.HasPrefix(line, "*") {
				continue
			}
			line = strings.SplitN(line, "/", 2)[0]
		}
		words[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Watcher hot-reloads a Dictionary's word lists when their backing files
// change on disk. It implements suture.Service so a supervisor restarts it
// with backoff if the underlying fsnotify watch dies, consistent with the
// audio hotplug watcher's supervision shape.
type Watcher struct {
	dict *Dictionary
	log  *logrus.Entry
}

// NewWatcher creates a Watcher for dict.
func NewWatcher(dict *Dictionary) *Watcher {
	return &Watcher{dict: dict, log: logrus.WithField("component", "userdict.watcher")}
}

// Serve implements suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("userdict: create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	watchDirs := map[string]struct{}{filepath.Dir(w.dict.appWordsPath): {}}
	if w.dict.systemDictPath != "" {
		watchDirs[filepath.Dir(w.dict.systemDictPath)] = struct{}{}
	}
	for dir := range watchDirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("userdict: watch %q: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("userdict: watcher events channel closed")
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.handleChange(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("userdict: watcher errors channel closed")
			}
			w.log.WithError(err).Debug("userdict watcher error")
		}
	}
}

func (w *Watcher) handleChange(path string) {
	switch path {
	case w.dict.appWordsPath:
		if err := w.dict.ReloadAppWords(); err != nil {
			w.log.WithError(err).Warn("failed to reload app words")
		}
	case w.dict.systemDictPath:
		if err := w.dict.ReloadSystemWords(); err != nil {
			w.log.WithError(err).Warn("failed to reload system dictionary")
		}
	}
}
