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

// PutWordUnchecked records one word occurrence and advances its two
// materialized counters in a single transaction (spec §4.5 / invariants
// I1, I2). The words_counts_guarantees upsert deliberately keys on
// (guarantee, namespace, kind, parent, lang, word) — the source's
// per-guarantee query omitted namespace from that key (spec §9's
// documented bug); this implementation does not repeat it.
func (s *Store) PutWordUnchecked(ctx context.Context, rec model.GuarantorSigned[model.WordHash], parent model.Hash) error {
	inner := rec.Inner
	w := inner.Payload

	namespace := hashutil.EncodeHash(w.Key.Namespace)
	kind := hashutil.EncodeHash(w.Kind)
	parentStr := hashutil.EncodeHash(parent)
	lang := hashutil.EncodeHash(w.Key.Text.Lang)
	word := hashutil.EncodeHash(w.Key.Text.Msg)
	guarantee := hashutil.EncodeAccount(inner.Guarantee.Account)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr(err, "begin word tx")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO words
			(nonce, created_date, expiration_date, guarantee, guarantor,
			 guarantee_sig, guarantor_sig, payload_hash,
			 namespace, kind, parent, lang, word, relpath, path_value, path_len)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		inner.Meta.Nonce[:], inner.Meta.CreatedDate, inner.Meta.ExpirationDate,
		guarantee, hashutil.EncodeAccount(inner.Meta.Guarantor),
		inner.Guarantee.Signature, rec.Guarantor.Signature, hashutil.EncodeHash(inner.Meta.Hash),
		namespace, kind, parentStr, lang, word, w.Relpath, w.Path.Value, w.Path.Len)
	if err != nil {
		return storageErr(err, "insert words")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO words_counts (namespace, kind, parent, lang, word, count)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (namespace, kind, parent, lang, word)
		DO UPDATE SET count = words_counts.count + 1`,
		namespace, kind, parentStr, lang, word)
	if err != nil {
		return storageErr(err, "upsert words_counts")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO words_counts_guarantees (guarantee, namespace, kind, parent, lang, word, count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (guarantee, namespace, kind, parent, lang, word)
		DO UPDATE SET count = words_counts_guarantees.count + 1`,
		guarantee, namespace, kind, parentStr, lang, word)
	if err != nil {
		return storageErr(err, "upsert words_counts_guarantees")
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr(err, "commit word tx")
	}
	return nil
}

// wordRow is a scratch scan target for the words table's signed-envelope
// columns, shared by GetWordManyUnchecked and GetWordLatestUnchecked.
type wordRow struct {
	nonce                      []byte
	created                    time.Time
	expires                    *time.Time
	guaranteeStr               string
	guaranteeSig, guarantorSig []byte
	kindStr                    string
	relpath                    bool
	pathValue                  string
	pathLen                    int64
}

func (r wordRow) toRecord(guarantor model.Account, key model.WordKeyHash) (model.GuarantorSigned[model.WordHash], error) {
	guaranteeAcct, err := hashutil.DecodeAccount(r.guaranteeStr)
	if err != nil {
		return model.GuarantorSigned[model.WordHash]{}, err
	}
	kindHash, err := hashutil.DecodeHash(r.kindStr)
	if err != nil {
		return model.GuarantorSigned[model.WordHash]{}, err
	}
	var nonceArr [16]byte
	copy(nonceArr[:], r.nonce)

	return model.GuarantorSigned[model.WordHash]{
		Guarantor: model.Identity{Account: guarantor, Signature: r.guarantorSig},
		Inner: model.GuaranteeSigned[model.WordHash]{
			Guarantee: model.Identity{Account: guaranteeAcct, Signature: r.guaranteeSig},
			Payload: model.WordHash{
				Key:     key,
				Kind:    kindHash,
				Relpath: r.relpath,
				Path:    model.Path{Value: r.pathValue, Len: r.pathLen},
			},
			Meta: model.Metadata{
				Nonce:          nonceArr,
				CreatedDate:    r.created,
				ExpirationDate: r.expires,
				Guarantor:      guarantor,
			},
		},
	}, nil
}

// wordFilterColumn resolves which words column a GetWords/GetWordsCounts
// query's Parent selector matches against: the occurrence's own word hash,
// or its parent hash (spec §6: ParentNone vs ParentDuplicated).
func wordFilterColumn(byParent bool) string {
	if byParent {
		return "parent"
	}
	return "word"
}

// GetWordManyUnchecked returns the [StartIndex, EndIndex) page of word
// occurrences matching params, newest first (spec §9's resolved ordering).
// Results are scoped to guarantee's own occurrences (spec §4.5: "filtered
// by (guarantee ∨ self, guarantor=self, namespace, lang, unexpired)") —
// callers pass the server's own account for the self case.
func (s *Store) GetWordManyUnchecked(ctx context.Context, guarantor, guarantee model.Account, params model.GetWords) ([]model.GuarantorSigned[model.WordHash], error) {
	if !model.ValidRange(params.StartIndex, params.EndIndex) {
		return nil, ipdiserr.Malformed("words: invalid range [%d, %d)", params.StartIndex, params.EndIndex)
	}

	col := wordFilterColumn(params.Parent == model.ParentDuplicated)
	namespace := hashutil.EncodeHash(params.Word.Namespace)
	lang := hashutil.EncodeHash(params.Word.Text.Lang)
	text := hashutil.EncodeHash(params.Word.Text.Msg)
	limit := params.EndIndex - params.StartIndex

	query := `
		SELECT nonce, created_date, expiration_date, guarantee, guarantee_sig,
		       guarantor_sig, kind, relpath, path_value, path_len
		FROM words
		WHERE guarantor = $1 AND guarantee = $2 AND namespace = $3 AND lang = $4 AND ` + col + ` = $5
		  AND (expiration_date IS NULL OR expiration_date >= now())
		ORDER BY id DESC
		OFFSET $6 LIMIT $7`

	rows, err := s.pool.Query(ctx, query,
		hashutil.EncodeAccount(guarantor), hashutil.EncodeAccount(guarantee), namespace, lang, text,
		params.StartIndex, limit)
	if err != nil {
		return nil, storageErr(err, "select words")
	}
	defer rows.Close()

	var out []model.GuarantorSigned[model.WordHash]
	for rows.Next() {
		var r wordRow
		if err := rows.Scan(&r.nonce, &r.created, &r.expires, &r.guaranteeStr, &r.guaranteeSig,
			&r.guarantorSig, &r.kindStr, &r.relpath, &r.pathValue, &r.pathLen); err != nil {
			return nil, storageErr(err, "scan words")
		}
		rec, err := r.toRecord(guarantor, params.Word)
		if err != nil {
			return nil, storageErr(err, "decode words row")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterate words")
	}
	return out, nil
}

// GetWordLatestUnchecked returns the single most recently recorded
// occurrence matching key, or ipdiserr.ErrNotFound. Scoped to guarantee's
// own occurrences, per the same (guarantee ∨ self) filter as
// GetWordManyUnchecked.
func (s *Store) GetWordLatestUnchecked(ctx context.Context, guarantor, guarantee model.Account, key model.WordKeyHash, byParent bool) (*model.GuarantorSigned[model.WordHash], error) {
	col := wordFilterColumn(byParent)
	namespace := hashutil.EncodeHash(key.Namespace)
	lang := hashutil.EncodeHash(key.Text.Lang)
	text := hashutil.EncodeHash(key.Text.Msg)

	query := `
		SELECT nonce, created_date, expiration_date, guarantee, guarantee_sig,
		       guarantor_sig, kind, relpath, path_value, path_len
		FROM words
		WHERE guarantor = $1 AND guarantee = $2 AND namespace = $3 AND lang = $4 AND ` + col + ` = $5
		  AND (expiration_date IS NULL OR expiration_date >= now())
		ORDER BY id DESC
		LIMIT 1`

	row := s.pool.QueryRow(ctx, query,
		hashutil.EncodeAccount(guarantor), hashutil.EncodeAccount(guarantee), namespace, lang, text)

	var r wordRow
	if err := row.Scan(&r.nonce, &r.created, &r.expires, &r.guaranteeStr, &r.guaranteeSig,
		&r.guarantorSig, &r.kindStr, &r.relpath, &r.pathValue, &r.pathLen); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ipdiserr.NotFound("words: no occurrence for key")
		}
		return nil, storageErr(err, "select latest word")
	}
	rec, err := r.toRecord(guarantor, key)
	if err != nil {
		return nil, storageErr(err, "decode latest word")
	}
	return &rec, nil
}

// GetWordCountUnchecked returns the exact count for one (namespace, kind,
// parent, lang, word) natural key, from the global or per-guarantee
// counter table.
func (s *Store) GetWordCountUnchecked(ctx context.Context, namespace, kind, parent, lang, word model.Hash, guarantee *model.Account) (uint32, error) {
	var row pgx.Row
	args := []any{
		hashutil.EncodeHash(namespace), hashutil.EncodeHash(kind),
		hashutil.EncodeHash(parent), hashutil.EncodeHash(lang), hashutil.EncodeHash(word),
	}
	if guarantee != nil {
		row = s.pool.QueryRow(ctx, `
			SELECT count FROM words_counts_guarantees
			WHERE guarantee = $6 AND namespace = $1 AND kind = $2 AND parent = $3 AND lang = $4 AND word = $5`,
			append(args, hashutil.EncodeAccount(*guarantee))...)
	} else {
		row = s.pool.QueryRow(ctx, `
			SELECT count FROM words_counts
			WHERE namespace = $1 AND kind = $2 AND parent = $3 AND lang = $4 AND word = $5`,
			args...)
	}

	var count int64
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, storageErr(err, "select word count")
	}
	return uint32(count), nil
}

// GetWordCountManyUnchecked returns the [StartIndex, EndIndex) page of
// per-kind counters matching params (spec §6: WordCountGetMany), newest
// counter row first (DESC by id).
func (s *Store) GetWordCountManyUnchecked(ctx context.Context, guarantee model.Account, params model.GetWordsCounts) ([]model.GetWordsCountsOutput, error) {
	if !model.ValidRange(params.StartIndex, params.EndIndex) {
		return nil, ipdiserr.Malformed("word counts: invalid range [%d, %d)", params.StartIndex, params.EndIndex)
	}

	col := wordFilterColumn(params.Parent)
	namespace := hashutil.EncodeHash(params.Word.Namespace)
	lang := hashutil.EncodeHash(params.Word.Text.Lang)
	text := hashutil.EncodeHash(params.Word.Text.Msg)
	limit := params.EndIndex - params.StartIndex

	table := "words_counts"
	args := []any{namespace, lang, text, params.StartIndex, limit}
	var query string
	if params.Owned {
		query = `
			SELECT kind, parent, count FROM words_counts_guarantees
			WHERE guarantee = $6 AND namespace = $1 AND lang = $2 AND ` + col + ` = $3
			ORDER BY id DESC
			OFFSET $4 LIMIT $5`
		args = append(args, hashutil.EncodeAccount(guarantee))
	} else {
		query = `
			SELECT kind, parent, count FROM ` + table + `
			WHERE namespace = $1 AND lang = $2 AND ` + col + ` = $3
			ORDER BY id DESC
			OFFSET $4 LIMIT $5`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err, "select word counts")
	}
	defer rows.Close()

	var out []model.GetWordsCountsOutput
	for rows.Next() {
		var kindStr, parentStr string
		var count int64
		if err := rows.Scan(&kindStr, &parentStr, &count); err != nil {
			return nil, storageErr(err, "scan word counts")
		}
		kindHash, err := hashutil.DecodeHash(kindStr)
		if err != nil {
			return nil, storageErr(err, "decode kind hash")
		}
		out = append(out, model.GetWordsCountsOutput{
			Word: model.WordKeyHashWithKind{
				Key:  params.Word,
				Kind: kindHash,
			},
			Count: uint32(count),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterate word counts")
	}
	return out, nil
}
