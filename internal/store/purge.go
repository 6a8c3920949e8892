package store

import (
	"context"

	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/model"
)

// DeleteWordAllUnchecked removes every word occurrence under namespace for
// guarantor, every words_counts row in namespace, and the
// words_counts_guarantees rows in namespace of each guarantee that had an
// occurrence there under guarantor. Counters are deleted, not rebuilt. Spec §4.6:
// an administrative purge, transactional across all three tables so a
// crash mid-purge can never leave words_counts/words_counts_guarantees out
// of sync with invariants I1/I2. Never reachable from internal/server's RPC
// dispatch table, only from cmd/ipdis.
func (s *Store) DeleteWordAllUnchecked(ctx context.Context, guarantor model.Account, namespace model.Hash) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr(err, "begin purge tx")
	}
	defer tx.Rollback(ctx)

	guarantorStr := hashutil.EncodeAccount(guarantor)
	namespaceStr := hashutil.EncodeHash(namespace)

	if _, err := tx.Exec(ctx, `
		DELETE FROM words_counts_guarantees
		WHERE namespace = $1 AND guarantee IN (
			SELECT DISTINCT guarantee FROM words WHERE guarantor = $2 AND namespace = $1
		)`, namespaceStr, guarantorStr); err != nil {
		return storageErr(err, "purge words_counts_guarantees")
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM words_counts WHERE namespace = $1`, namespaceStr); err != nil {
		return storageErr(err, "purge words_counts")
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM words WHERE guarantor = $1 AND namespace = $2`, guarantorStr, namespaceStr); err != nil {
		return storageErr(err, "purge words")
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr(err, "commit purge tx")
	}
	return nil
}
