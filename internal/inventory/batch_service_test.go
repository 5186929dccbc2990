package inventory

import (
	"context"
	"testing"

	"luxverify-backend/internal/apperr"
	"luxverify-backend/internal/codegen"
	"luxverify-backend/internal/models"
	"luxverify-backend/internal/qrcode"
	"luxverify-backend/internal/store"
	"luxverify-backend/internal/verify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newBatchService(t *testing.T, repo *fakeRepo, files *memAssets, codes CodeSource) *BatchService {
	t.Helper()
	if codes == nil {
		gen, err := codegen.New("SKG", 2)
		require.NoError(t, err)
		codes = gen
	}
	return NewBatchService(repo, codes, qrcode.NewEncoder(128), files, testBaseURL)
}

func TestCreateBatch(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)

	created, err := svc.Create(context.Background(), CreateBatchInput{Name: "Coin 5g", Weight: 5, Quantity: 4, WeightGroup: "5g"})
	require.NoError(t, err)

	b := created.Batch
	assert.Equal(t, models.QrModePlain, b.QrMode)
	require.Len(t, b.Items, 4)
	assert.Nil(t, created.RootKeys)
	seen := map[string]bool{}
	for _, it := range b.Items {
		assert.Regexp(t, `^SKG[A-Z0-9]+$`, it.UniqCode)
		assert.False(t, seen[it.UniqCode])
		seen[it.UniqCode] = true
		assert.Regexp(t, `^/assets/items/`+it.UniqCode+`-[0-9a-f]{12}\.png$`, it.QrImageURL)
		assert.False(t, it.HasRootKey())
	}
	assert.Equal(t, 4, files.count())
}

func TestCreateBatchWithRootKeys(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)

	created, err := svc.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 10, Quantity: 2, WithRootKey: true})
	require.NoError(t, err)
	require.Len(t, created.RootKeys, 2)

	for _, it := range created.Batch.Items {
		key := created.RootKeys[it.UniqCode]
		assert.Regexp(t, `^[0-9A-F]{32}$`, key)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(it.RootKeyHash), []byte(key)))
	}
}

func TestCreateBatchLabeledImages(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)

	created, err := svc.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 1, Quantity: 1, QrMode: models.QrModeLabeled})
	require.NoError(t, err)

	it := created.Batch.Items[0]
	want, err := verify.RenderItem(qrcode.NewEncoder(128), qrcode.VerificationURL(testBaseURL, it.UniqCode), created.Batch)
	require.NoError(t, err)
	assert.Equal(t, want, files.files[it.QrImageURL])
}

func TestCreateBatchValidation(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)

	for _, in := range []CreateBatchInput{
		{Name: "Bar", Weight: 1, Quantity: 0},
		{Name: "Bar", Weight: 1, Quantity: MaxBatchQuantity + 1},
		{Name: "", Weight: 1, Quantity: 1},
		{Name: "Bar", Weight: -1, Quantity: 1},
		{Name: "Bar", Weight: 1, Quantity: 1, QrMode: "fancy"},
	} {
		_, err := svc.Create(context.Background(), in)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "%+v", in)
	}
	assert.Empty(t, repo.batches)
	assert.Zero(t, files.count())
}

func TestCreateBatchAssetFailureRollsBackImages(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	files.failAfter = 2
	svc := newBatchService(t, repo, files, nil)

	_, err := svc.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 1, Quantity: 5})
	assert.Equal(t, apperr.KindDependency, apperr.KindOf(err))
	assert.Empty(t, repo.batches)
	assert.Zero(t, files.count())
}

func TestCreateBatchSkipsTakenCodes(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	repo.takenCode["SKG000001"] = true
	codes := &scriptedCodes{codes: []string{"SKG000001", "SKG000002", "SKG000002", "SKG000003"}}
	svc := newBatchService(t, repo, files, codes)

	created, err := svc.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 1, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "SKG000002", created.Batch.Items[0].UniqCode)
	assert.Equal(t, "SKG000003", created.Batch.Items[1].UniqCode)
}

func TestCreateBatchSkipsProductSerialCodes(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	products := newProductService(t, repo, files, nil)
	_, err := products.Create(context.Background(), CreateProductInput{Name: "Ring", Weight: 3, SerialCode: "SKG000001"})
	require.NoError(t, err)

	codes := &scriptedCodes{codes: []string{"SKG000001", "SKG000002"}}
	svc := newBatchService(t, repo, files, codes)
	created, err := svc.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 1, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "SKG000002", created.Batch.Items[0].UniqCode)
}

func TestCreateBatchLosingRaceKeepsWinnerImages(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	winner := newBatchService(t, repo, files, &scriptedCodes{codes: []string{"SKG000001"}})
	loser := NewBatchService(racingRepo{repo}, &scriptedCodes{codes: []string{"SKG000001"}}, qrcode.NewEncoder(128), files, testBaseURL)

	created, err := winner.Create(context.Background(), CreateBatchInput{Name: "Bar", Weight: 1, Quantity: 1})
	require.NoError(t, err)

	_, err = loser.Create(context.Background(), CreateBatchInput{Name: "Coin", Weight: 2, Quantity: 1, QrMode: models.QrModeLabeled})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Len(t, repo.batches, 1)
	assert.Equal(t, 1, files.count())

	url := created.Batch.Items[0].QrImageURL
	want, err := verify.RenderItem(qrcode.NewEncoder(128), qrcode.VerificationURL(testBaseURL, "SKG000001"), created.Batch)
	require.NoError(t, err)
	assert.Equal(t, want, files.files[url])
}

func TestDeleteBatches(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateBatchInput{Name: "A", Weight: 1, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBatchInput{Name: "B", Weight: 1, Quantity: 2})
	require.NoError(t, err)

	res, err := svc.Delete(ctx, first.Batch.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, store.DeleteResult{Batches: 1, Items: 3}, res)
	assert.Equal(t, 2, files.count())

	_, err = svc.Delete(ctx, first.Batch.ID, "admin@example.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	res, err = svc.DeleteAll(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, store.DeleteResult{Batches: 1, Items: 2}, res)
	assert.Zero(t, files.count())

	res, err = svc.DeleteAll(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, store.DeleteResult{}, res)
}

func TestVerifyIssuedItem(t *testing.T) {
	repo, files := newFakeRepo(), newMemAssets()
	svc := newBatchService(t, repo, files, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBatchInput{Name: "Coin", Weight: 2.5, Quantity: 1, WeightGroup: "2.5g", WithRootKey: true})
	require.NoError(t, err)
	code := created.Batch.Items[0].UniqCode

	verifier := verify.NewService(&lifecycleRepo{fakeRepo: repo}, qrcode.NewEncoder(128), nil, testBaseURL)
	res, err := verifier.Verify(ctx, code, store.ScanInfo{})
	require.NoError(t, err)
	assert.Equal(t, "item", res.Product.Kind)
	assert.Equal(t, "2.5g", res.Product.WeightGroup)
	assert.True(t, res.Product.HasRootKey)

	ok, err := verifier.VerifyRootKey(ctx, code, created.RootKeys[code])
	require.NoError(t, err)
	assert.True(t, ok)
}
