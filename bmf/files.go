package bmf

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"bmfapprox/bitmat"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Suffixes of the persisted matrices: basis (h), solver (w) and the
// saturated product (wh). The digest file (d) names the table they factorize.
const (
	BasisSuffix   = "_h_"
	SolverSuffix  = "_w_"
	ProductSuffix = "_wh_"
	DigestSuffix  = "_d_"
)

var ErrStaleFactorization = errors.New("stored factorization belongs to another table")

// Digest identifies a table by its shape and contents.
func Digest(table *bitmat.Matrix) string {
	d := xxhash.New()
	fmt.Fprintf(d, "%dx%d\n", table.Rows(), table.Cols())
	_, _ = d.WriteString(table.String())
	return strconv.FormatUint(d.Sum64(), 16)
}

func FilePath(prefix, suffix string, k int) string {
	return prefix + suffix + strconv.Itoa(k)
}

// WriteFiles stores S, B and their saturated product next to prefix, one
// blank separated integer row per line, and the digest of table.
func WriteFiles(prefix string, table *bitmat.Matrix, r Result) error {
	if err := os.WriteFile(FilePath(prefix, DigestSuffix, r.K), []byte(Digest(table)+"\n"), 0o644); err != nil {
		return errors.Wrapf(err, "could not write digest for %q", prefix)
	}
	if err := bitmat.WriteIntsFile(FilePath(prefix, SolverSuffix, r.K), r.S); err != nil {
		return err
	}
	if err := bitmat.WriteIntsFile(FilePath(prefix, BasisSuffix, r.K), r.B); err != nil {
		return err
	}
	return bitmat.WriteIntsFile(FilePath(prefix, ProductSuffix, r.K), bitmat.MulOr(r.S, r.B))
}

// ReadFiles loads a factorization written by WriteFiles for this table and
// rescores it. It reports false when the files are absent, and
// ErrStaleFactorization when they were written for another table.
func ReadFiles(prefix string, table *bitmat.Matrix, k int, weighted bool) (Result, bool, error) {
	sPath, bPath, dPath := FilePath(prefix, SolverSuffix, k), FilePath(prefix, BasisSuffix, k), FilePath(prefix, DigestSuffix, k)
	for _, p := range []string{sPath, bPath, dPath} {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return Result{}, false, nil
			}
			return Result{}, false, errors.Wrapf(err, "could not stat %q", p)
		}
	}
	digest, err := os.ReadFile(dPath)
	if err != nil {
		return Result{}, false, errors.Wrapf(err, "could not read %q", dPath)
	}
	if string(bytes.TrimSpace(digest)) != Digest(table) {
		return Result{}, false, errors.Wrapf(ErrStaleFactorization, "rank %d at %q", k, prefix)
	}
	s, err := bitmat.ReadFile(sPath)
	if err != nil {
		return Result{}, false, err
	}
	b, err := bitmat.ReadFile(bPath)
	if err != nil {
		return Result{}, false, err
	}
	if s.Rows() != table.Rows() || s.Cols() != k || b.Rows() != k || b.Cols() != table.Cols() {
		return Result{}, false, errors.Errorf("stored rank-%d factorization at %q is %dx%d · %dx%d, table is %dx%d",
			k, prefix, s.Rows(), s.Cols(), b.Rows(), b.Cols(), table.Rows(), table.Cols())
	}
	recon := bitmat.MulMod2(s, b)
	return Result{
		K:              k,
		Weighted:       weighted,
		S:              s,
		B:              b,
		Reconstruction: recon,
		Score:          Distance(table, recon, weighted),
	}, true, nil
}
