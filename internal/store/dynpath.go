package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ipdis-project/ipdis/pkg/hashutil"
	"github.com/ipdis-project/ipdis/pkg/ipdiserr"
	"github.com/ipdis-project/ipdis/pkg/model"
)

// PutDynPathUnchecked inserts a new dyn_paths row. Spec §4.4: dyn_paths is
// append-only from the RPC surface; GetDynPathUnchecked always resolves to
// the most recently created row for a given key, so "updating" a binding is
// just inserting a newer row rather than mutating one in place.
func (s *Store) PutDynPathUnchecked(ctx context.Context, rec model.GuarantorSigned[model.DynPath[model.Path]]) error {
	inner := rec.Inner
	dp := inner.Payload

	_, err := s.pool.Exec(ctx, `
		INSERT INTO dyn_paths
			(nonce, created_date, expiration_date, guarantee, guarantor,
			 guarantee_sig, guarantor_sig, payload_hash,
			 namespace, kind, word, path_value, path_len)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inner.Meta.Nonce[:], inner.Meta.CreatedDate, inner.Meta.ExpirationDate,
		hashutil.EncodeAccount(inner.Guarantee.Account), hashutil.EncodeAccount(inner.Meta.Guarantor),
		inner.Guarantee.Signature, rec.Guarantor.Signature, hashutil.EncodeHash(inner.Meta.Hash),
		hashutil.EncodeHash(dp.Namespace), hashutil.EncodeHash(dp.Kind), hashutil.EncodeHash(dp.Word),
		dp.Path.Value, dp.Path.Len)
	if err != nil {
		return storageErr(err, "insert dyn_paths")
	}
	return nil
}

// GetDynPathUnchecked resolves the most recently created binding for
// (guarantor, namespace, kind, word), or ipdiserr.ErrNotFound if none
// exists. Scoped to guarantee's own bindings, per spec §4.4: "matching
// (guarantee ∨ self, guarantor=self, namespace, kind, word)" — callers pass
// the server's own account for the self case.
func (s *Store) GetDynPathUnchecked(ctx context.Context, guarantor, guarantee model.Account, namespace, kind, word model.Hash) (*model.GuarantorSigned[model.DynPath[model.Path]], error) {
	row := s.pool.QueryRow(ctx, `
		SELECT nonce, created_date, expiration_date, guarantee, guarantee_sig,
		       guarantor_sig, path_value, path_len
		FROM dyn_paths
		WHERE guarantor = $1 AND guarantee = $2 AND namespace = $3 AND kind = $4 AND word = $5
		  AND (expiration_date IS NULL OR expiration_date >= now())
		ORDER BY created_date DESC
		LIMIT 1`,
		hashutil.EncodeAccount(guarantor), hashutil.EncodeAccount(guarantee), hashutil.EncodeHash(namespace),
		hashutil.EncodeHash(kind), hashutil.EncodeHash(word))

	var (
		nonce                      []byte
		created                    time.Time
		expires                    *time.Time
		guaranteeStr               string
		guaranteeSig, guarantorSig []byte
		pathValue                  string
		pathLen                    int64
	)
	if err := row.Scan(&nonce, &created, &expires, &guaranteeStr, &guaranteeSig,
		&guarantorSig, &pathValue, &pathLen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ipdiserr.NotFound("dyn_paths: no binding for namespace/kind/word under guarantor %s",
				hashutil.EncodeAccount(guarantor))
		}
		return nil, storageErr(err, "select dyn_paths")
	}

	guaranteeAcct, err := hashutil.DecodeAccount(guaranteeStr)
	if err != nil {
		return nil, storageErr(err, "decode dyn_paths.guarantee")
	}

	var nonceArr [16]byte
	copy(nonceArr[:], nonce)

	out := &model.GuarantorSigned[model.DynPath[model.Path]]{
		Guarantor: model.Identity{Account: guarantor, Signature: guarantorSig},
		Inner: model.GuaranteeSigned[model.DynPath[model.Path]]{
			Guarantee: model.Identity{Account: guaranteeAcct, Signature: guaranteeSig},
			Payload: model.DynPath[model.Path]{
				Namespace: namespace,
				Kind:      kind,
				Word:      word,
				Path:      model.Path{Value: pathValue, Len: pathLen},
			},
			Meta: model.Metadata{
				Nonce:          nonceArr,
				CreatedDate:    created,
				ExpirationDate: expires,
				Guarantor:      guarantor,
			},
		},
	}
	return out, nil
}

// DeleteDynPathAllUnchecked removes every dyn_paths row under namespace for
// guarantor. Administrative operation (spec §4.6).
func (s *Store) DeleteDynPathAllUnchecked(ctx context.Context, guarantor model.Account, namespace model.Hash) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM dyn_paths WHERE guarantor = $1 AND namespace = $2`,
		hashutil.EncodeAccount(guarantor), hashutil.EncodeHash(namespace))
	if err != nil {
		return storageErr(err, "delete dyn_paths")
	}
	return nil
}
