package signing

import (
	"testing"
	"time"

	"github.com/ipdis-project/ipdis/pkg/model"
)

func TestSignAsGuaranteeThenGuarantorRoundTrip(t *testing.T) {
	guarantee, err := GenerateEd25519Signer()
	if err != nil {
		t.Fatalf("generate guarantee signer: %v", err)
	}
	guarantor, err := GenerateEd25519Signer()
	if err != nil {
		t.Fatalf("generate guarantor signer: %v", err)
	}

	payload := model.AccountRef{Account: guarantee.Account()}
	env, err := SignAsGuarantee(guarantee, guarantor.Account(), payload, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	if env.Meta.Guarantor != guarantor.Account() {
		t.Fatalf("envelope not addressed to guarantor")
	}

	ok, err := VerifyGuarantee(guarantee, env)
	if err != nil {
		t.Fatalf("verify_guarantee: %v", err)
	}
	if !ok {
		t.Fatal("expected guarantee signature to verify")
	}

	signed, err := SignAsGuarantor(guarantor, env)
	if err != nil {
		t.Fatalf("sign_as_guarantor: %v", err)
	}

	ok, err = VerifyGuarantor(guarantor, signed)
	if err != nil {
		t.Fatalf("verify_guarantor: %v", err)
	}
	if !ok {
		t.Fatal("expected guarantor signature to verify")
	}
}

func TestSignAsGuarantorRejectsWrongGuarantor(t *testing.T) {
	guarantee, _ := GenerateEd25519Signer()
	guarantor, _ := GenerateEd25519Signer()
	impostor, _ := GenerateEd25519Signer()

	env, err := SignAsGuarantee(guarantee, guarantor.Account(), model.AccountRef{}, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}

	if _, err := SignAsGuarantor(impostor, env); err == nil {
		t.Fatal("expected error when the wrong account countersigns")
	}
}

func TestSignAsGuarantorRejectsTamperedPayload(t *testing.T) {
	guarantee, _ := GenerateEd25519Signer()
	guarantor, _ := GenerateEd25519Signer()

	env, err := SignAsGuarantee(guarantee, guarantor.Account(), model.AccountRef{Account: guarantee.Account()}, nil)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	env.Payload.Account = guarantor.Account() // tamper after signing

	if _, err := SignAsGuarantor(guarantor, env); err == nil {
		t.Fatal("expected signature verification to fail on a tampered payload")
	}
}

func TestSignAsGuaranteeAppliesExpiry(t *testing.T) {
	guarantee, _ := GenerateEd25519Signer()
	guarantor, _ := GenerateEd25519Signer()

	ttl := 10 * time.Minute
	env, err := SignAsGuarantee(guarantee, guarantor.Account(), model.AccountRef{}, &ttl)
	if err != nil {
		t.Fatalf("sign_as_guarantee: %v", err)
	}
	if env.Meta.ExpirationDate == nil {
		t.Fatal("expected an expiration date to be set")
	}
	if !env.Meta.Active(time.Now().UTC()) {
		t.Fatal("expected envelope to be active immediately after signing")
	}
	if env.Meta.Active(env.Meta.ExpirationDate.Add(time.Second)) {
		t.Fatal("expected envelope to be inactive after its expiration date")
	}
}
