package latex

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// bibFingerprint hashes the citation-relevant inputs of a bibliography pass.
// When the fingerprint is unchanged since the last run and the .bbl output
// still exists, the pass can be skipped: its output would be identical.
//
// biber reads the full control file the compiler wrote (.bcf), so the whole
// file is hashed. bibtex reads \citation, \bibdata and \bibstyle lines from
// the .aux file; only those lines are hashed so unrelated aux churn (page
// numbers, labels) does not force a re-run.
func bibFingerprint(dir, entry string, tool ToolName) (uint64, bool) {
	base := EntryBase(entry)
	if tool == Biber {
		data, err := os.ReadFile(filepath.Join(dir, base+".bcf"))
		if err != nil {
			return 0, false
		}
		return xxhash.Sum64(data), true
	}
	return auxCitationFingerprint(filepath.Join(dir, base+".aux"))
}

func auxCitationFingerprint(auxPath string) (uint64, bool) {
	f, err := os.Open(auxPath)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	h := xxhash.New()
	found := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, `\citation{`) ||
			strings.HasPrefix(line, `\bibdata{`) ||
			strings.HasPrefix(line, `\bibstyle{`) {
			_, _ = h.WriteString(line)
			_, _ = h.WriteString("\n")
			found = true
		}
	}
	if scanner.Err() != nil || !found {
		return 0, false
	}
	return h.Sum64(), true
}

// hasGlossaryInput reports whether the compiler emitted glossary entries for
// makeglossaries to process.
func hasGlossaryInput(dir, entry string) bool {
	base := EntryBase(entry)
	if _, err := os.Stat(filepath.Join(dir, base+".glo")); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(dir, base+".ist"))
	return err == nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
