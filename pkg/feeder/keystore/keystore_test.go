package keystore

import (
	"os"
	"path/filepath"
	"testing"

	sdkcrypto "github.com/cosmos/cosmos-sdk/crypto"
	"github.com/cosmos/cosmos-sdk/crypto/keys/secp256k1"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Standard test vector mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestFromMnemonicDeterministic(t *testing.T) {
	kr1, val1, acc1, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	_, val2, acc2, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, acc1, acc2)
	assert.Equal(t, val1, val2)
	// Validator address shares the raw bytes with the account address
	assert.Equal(t, []byte(acc1), []byte(val1))

	record, err := kr1.KeyByAddress(acc1)
	require.NoError(t, err)
	assert.Equal(t, acc1.String(), record.Name)
}

func TestFromMnemonicPathMatters(t *testing.T) {
	_, _, acc330, err := FromMnemonic(testMnemonic, "m/44'/330'/0'/0/0")
	require.NoError(t, err)
	_, _, acc118, err := FromMnemonic(testMnemonic, "m/44'/118'/0'/0/0")
	require.NoError(t, err)

	assert.NotEqual(t, acc330, acc118)
}

func TestSignAndVerify(t *testing.T) {
	kr, _, acc, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	msg := []byte("exchange rate vote payload")
	sig, pubKey, err := kr.SignByAddress(acc, msg)
	require.NoError(t, err)

	assert.True(t, pubKey.VerifySignature(msg, sig))
	assert.False(t, pubKey.VerifySignature([]byte("tampered"), sig))
	assert.Equal(t, sdk.AccAddress(pubKey.Address()), acc)
}

func TestSignRejectsUnknownAddress(t *testing.T) {
	kr, _, _, err := FromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	other := sdk.AccAddress([]byte("some-other-address--"))
	_, _, err = kr.SignByAddress(other, []byte("payload"))
	assert.Error(t, err)

	_, err = kr.KeyByAddress(other)
	assert.Error(t, err)
}

func TestFromArmoredFile(t *testing.T) {
	priv := secp256k1.GenPrivKey()
	armor := sdkcrypto.EncryptArmorPrivKey(priv, "hunter2", "secp256k1")

	path := filepath.Join(t.TempDir(), "feeder.key")
	require.NoError(t, os.WriteFile(path, []byte(armor), 0o600))

	kr, _, acc, err := FromArmoredFile(path, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, sdk.AccAddress(priv.PubKey().Address()), acc)

	sig, pubKey, err := kr.Sign("", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, pubKey.VerifySignature([]byte("payload"), sig))
}

func TestFromArmoredFileWrongPassphrase(t *testing.T) {
	priv := secp256k1.GenPrivKey()
	armor := sdkcrypto.EncryptArmorPrivKey(priv, "correct", "secp256k1")

	path := filepath.Join(t.TempDir(), "feeder.key")
	require.NoError(t, os.WriteFile(path, []byte(armor), 0o600))

	_, _, _, err := FromArmoredFile(path, "wrong")
	assert.Error(t, err)
}

func TestFromArmoredFileMissing(t *testing.T) {
	_, _, _, err := FromArmoredFile(filepath.Join(t.TempDir(), "nope.key"), "pw")
	assert.Error(t, err)
}
