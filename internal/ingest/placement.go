package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrCollision reports that both the base name and its fingerprint-suffixed
// variant are taken by different content. The suffix derivation guarantees
// this cannot happen for distinct fingerprints, so hitting it means the
// archive has been tampered with and the session must abort rather than
// overwrite.
var ErrCollision = errors.New("archive name collision")

// claimSet tracks names placed during the current session, keyed by relative
// archive directory. Placements are not visible in the catalog until their
// transaction commits, so intra-session collisions are resolved against this
// set first, then against the filesystem.
type claimSet map[string]map[string]string

func (c claimSet) owner(dir, name string) (string, bool) {
	fp, ok := c[dir][name]
	return fp, ok
}

func (c claimSet) claim(dir, name, fingerprint string) {
	if c[dir] == nil {
		c[dir] = make(map[string]string)
	}
	c[dir][name] = fingerprint
}

// resolveName decides the final archive filename for new content in the
// directory relDir under archiveRoot. The base name is used unchanged when
// free; a name held by different content gets the first 8 hex characters of
// the fingerprint appended to the stem. A name already claimed this session
// by the same fingerprint is reused verbatim.
func resolveName(archiveRoot, relDir, baseName, fingerprint string, claims claimSet) (string, error) {
	free, err := tryClaim(archiveRoot, relDir, baseName, fingerprint, claims)
	if err != nil || free {
		return baseName, err
	}

	ext := filepath.Ext(baseName)
	stem := strings.TrimSuffix(baseName, ext)
	short := fingerprint
	if len(short) > 8 {
		short = short[:8]
	}
	suffixed := fmt.Sprintf("%s_%s%s", stem, short, ext)

	free, err = tryClaim(archiveRoot, relDir, suffixed, fingerprint, claims)
	if err != nil || free {
		return suffixed, err
	}
	return "", fmt.Errorf("%w: %s taken in %s", ErrCollision, suffixed, relDir)
}

// tryClaim claims the name when it is unheld, or reports it free when this
// session already claimed it for the same fingerprint. A name held by another
// fingerprint, or present on disk, is not free.
func tryClaim(archiveRoot, relDir, name, fingerprint string, claims claimSet) (bool, error) {
	if owner, claimed := claims.owner(relDir, name); claimed {
		return owner == fingerprint, nil
	}

	_, err := os.Stat(filepath.Join(archiveRoot, relDir, name))
	switch {
	case err == nil:
		return false, nil
	case os.IsNotExist(err):
		claims.claim(relDir, name, fingerprint)
		return true, nil
	default:
		return false, fmt.Errorf("stat archive candidate %s: %w", name, err)
	}
}
