package store

import (
	"context"

	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
)

// EnsureRegistered implements spec §4.3's authorization gate: guarantor may
// act on behalf of guarantee if guarantee == guarantor (self-authentication,
// short-circuiting the registry entirely) or an active accounts_guarantees
// row delegates guarantee to guarantor.
func (s *Store) EnsureRegistered(ctx context.Context, guarantee, guarantor model.Account) error {
	if guarantee == guarantor {
		return nil
	}

	row := s.pool.QueryRow(ctx, `
		SELECT 1 FROM accounts_guarantees
		WHERE guarantee = $1 AND guarantor = $2
		  AND (expiration_date IS NULL OR expiration_date >= now())
		LIMIT 1`,
		hashutil.EncodeAccount(guarantee), hashutil.EncodeAccount(guarantor))

	var found int
	if err := row.Scan(&found); err != nil {
		return ipdiserr.AuthFailure("guarantor %s has no active delegation from %s",
			hashutil.EncodeAccount(guarantor), hashutil.EncodeAccount(guarantee))
	}
	return nil
}

// AddGuaranteeUnchecked inserts a guarantee-delegates-to-guarantor row. It is
// "unchecked" in the spec's sense: it does not itself call EnsureRegistered,
// since delegation is how a new relationship is first established.
func (s *Store) AddGuaranteeUnchecked(ctx context.Context, rec model.GuarantorSigned[model.AccountRef]) error {
	inner := rec.Inner
	guarantee := inner.Guarantee.Account
	guarantor := inner.Meta.Guarantor

	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts_guarantees
			(nonce, created_date, expiration_date, guarantee, guarantor,
			 guarantee_sig, guarantor_sig, payload_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inner.Meta.Nonce[:], inner.Meta.CreatedDate, inner.Meta.ExpirationDate,
		hashutil.EncodeAccount(guarantee), hashutil.EncodeAccount(guarantor),
		inner.Guarantee.Signature, rec.Guarantor.Signature,
		hashutil.EncodeHash(inner.Meta.Hash))
	if err != nil {
		return storageErr(err, "insert accounts_guarantees")
	}
	return nil
}

// DeleteGuaranteeUnchecked removes every delegation row from guarantee to
// guarantor. It is an administrative operation (spec §4.6): never reachable
// from internal/server's RPC dispatch table, only from cmd/ipdis.
func (s *Store) DeleteGuaranteeUnchecked(ctx context.Context, guarantee, guarantor model.Account) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM accounts_guarantees WHERE guarantee = $1 AND guarantor = $2`,
		hashutil.EncodeAccount(guarantee), hashutil.EncodeAccount(guarantor))
	if err != nil {
		return storageErr(err, "delete accounts_guarantees")
	}
	return nil
}
