// Package inventory is the admin side of the code lifecycle: issuing serial
// codes with their QR images, and deleting them again.
package inventory

import (
	"context"

	"luxverify-backend/internal/apperr"
)

// MaxCodeAttempts bounds how often a generated code is re-drawn after a
// collision with an existing record.
const MaxCodeAttempts = 5

type CodeSource interface {
	Resolve(supplied string) (code string, generated bool, err error)
}

type existsFunc func(ctx context.Context, code string) (bool, error)

// CodeIndex answers whether a code is already issued as a product serial or
// as a batch item. Products are looked up first on verification, so a code
// must be free in both places.
type CodeIndex interface {
	SerialCodeExists(ctx context.Context, code string) (bool, error)
	UniqCodeExists(ctx context.Context, code string) (bool, error)
}

func codeTaken(idx CodeIndex) existsFunc {
	return func(ctx context.Context, code string) (bool, error) {
		taken, err := idx.SerialCodeExists(ctx, code)
		if err != nil || taken {
			return taken, err
		}
		return idx.UniqCodeExists(ctx, code)
	}
}

// allocateCode resolves a supplied code or draws generated ones until one is
// free. A taken supplied code is a conflict straight away.
func allocateCode(ctx context.Context, codes CodeSource, supplied string, exists existsFunc) (string, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code, generated, err := codes.Resolve(supplied)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", apperr.Dependency(err, "could not check code uniqueness")
		}
		if !taken {
			return code, nil
		}
		if !generated {
			return "", apperr.Conflict("code already in use")
		}
	}
	return "", apperr.Conflict("could not allocate unique code")
}
