// Package git finds Git repositories on disk and reads their remotes.
package git

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxDepth is how many directory levels below a root Scan descends.
const DefaultMaxDepth = 3

// Repo is a Git working tree found by Scan.
type Repo struct {
	Name     string `json:"name"`
	FullPath string `json:"full_path"`
}

// Remote is a configured remote with a browsable URL.
type Remote struct {
	Name string `json:"name"`
	Host string `json:"host"`
	URL  string `json:"url"`
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"Library":      true,
}

// isRepo reports whether dir holds a .git directory or a .git file (worktrees, submodules).
func isRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

// Scan walks roots for Git repositories up to maxDepth levels deep. It does not
// descend into a repository once found, nor into hidden directories. Missing
// roots are skipped. Results are sorted by name, then path.
func Scan(ctx context.Context, roots []string, maxDepth int) ([]Repo, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	seen := make(map[string]bool)
	var repos []Repo

	for _, root := range roots {
		root = ExpandHome(root)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		base := strings.Count(filepath.Clean(root), string(filepath.Separator))

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				// Unreadable directories are skipped, not fatal.
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && (strings.HasPrefix(d.Name(), ".") || skipDirs[d.Name()]) {
				return filepath.SkipDir
			}
			if isRepo(path) {
				if !seen[path] {
					seen[path] = true
					repos = append(repos, Repo{Name: filepath.Base(path), FullPath: path})
				}
				return filepath.SkipDir
			}
			if strings.Count(filepath.Clean(path), string(filepath.Separator))-base >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	sort.Slice(repos, func(i, j int) bool {
		if !strings.EqualFold(repos[i].Name, repos[j].Name) {
			return strings.ToLower(repos[i].Name) < strings.ToLower(repos[j].Name)
		}
		return repos[i].FullPath < repos[j].FullPath
	})
	return repos, nil
}

// Root walks up from dir to the enclosing repository. Returns "" when dir is not inside one.
func Root(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if isRepo(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// gitDir resolves the repository's git directory, following "gitdir:" files.
func gitDir(repoPath string) (string, error) {
	dotGit := filepath.Join(repoPath, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", err
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: not a gitdir file", dotGit)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoPath, target)
	}
	return target, nil
}

var remoteSection = regexp.MustCompile(`^\[remote\s+"([^"]+)"\]$`)

// Remotes reads the remotes of the repository at repoPath from its git config.
// Remotes whose URL has no web location (local paths) are left out.
func Remotes(repoPath string) ([]Remote, error) {
	dir, err := gitDir(repoPath)
	if err != nil {
		return nil, fmt.Errorf("locating git dir: %w", err)
	}

	// Worktrees keep their config in the main repository.
	configPath := filepath.Join(dir, "config")
	if common, err := os.ReadFile(filepath.Join(dir, "commondir")); err == nil {
		commonDir := strings.TrimSpace(string(common))
		if !filepath.IsAbs(commonDir) {
			commonDir = filepath.Join(dir, commonDir)
		}
		configPath = filepath.Join(commonDir, "config")
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading git config: %w", err)
	}
	defer func() { _ = f.Close() }()

	var remotes []Remote
	current := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if strings.HasPrefix(line, "[") {
			current = ""
			if m := remoteSection.FindStringSubmatch(line); m != nil {
				current = m[1]
			}
			continue
		}
		if current == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "url" {
			continue
		}
		if host, web, ok := WebURL(strings.TrimSpace(value)); ok {
			remotes = append(remotes, Remote{Name: current, Host: host, URL: web})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading git config: %w", err)
	}
	return remotes, nil
}

var scpLike = regexp.MustCompile(`^(?:[^@/]+@)?([^:/]+):(.+)$`)

// WebURL turns a remote URL (scp-like, ssh://, git://, http(s)://) into the
// https URL of the repository page.
func WebURL(remote string) (host, web string, ok bool) {
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil || u.Hostname() == "" {
			return "", "", false
		}
		switch u.Scheme {
		case "ssh", "git", "git+ssh", "http", "https":
		default:
			return "", "", false
		}
		host = u.Hostname()
		return host, "https://" + host + "/" + trimRepoPath(u.Path), true
	}

	if filepath.IsAbs(remote) || strings.HasPrefix(remote, ".") {
		return "", "", false
	}
	m := scpLike.FindStringSubmatch(remote)
	if m == nil {
		return "", "", false
	}
	host = m[1]
	return host, "https://" + host + "/" + trimRepoPath(m[2]), true
}

func trimRepoPath(p string) string {
	p = strings.Trim(p, "/")
	return strings.TrimSuffix(p, ".git")
}

// ExpandHome replaces a leading "~" with the home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Tildify replaces the home directory prefix of path with "~".
func Tildify(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}

// Filter keeps repos whose name contains query, ignoring case.
func Filter(repos []Repo, query string) []Repo {
	if query == "" {
		return repos
	}
	q := strings.ToLower(query)
	var out []Repo
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// SectionTitle summarises a repo list, e.g. "3 Repos".
func SectionTitle(n int) string {
	if n == 1 {
		return "1 Repo"
	}
	return fmt.Sprintf("%d Repos", n)
}
