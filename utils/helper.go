package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"text/template"
	"time"

	"bitbucket.org/zeatech/resto_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "MM"

// ProcessValidationErrors flattens binding failures into a field -> tag map
// for the JSON error body. Returns nil for non-validation errors.
func ProcessValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func IsValidEmail(email string) bool {
	// Basic email validation regex pattern
	pattern := `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	regex := regexp.MustCompile(pattern)
	return regex.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err // Phone number is invalid
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// RestaurantLock serializes stock posting per restaurant via redislock.
//
// The lock is advisory: when Redis is not configured it is a no-op and the
// guarded conditional UPDATE in the ledger remains the correctness backstop.
// The returned release func is always safe to call.
func RestaurantLock(ctx context.Context, restaurantId string, lockType string, moduleName string, functionName string) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	logger := config.GetLogger()
	cid, _ := GetCorrelationIdFromContext(ctx)
	lockData := map[string]string{"restaurantId": restaurantId, "correlationId": cid}
	lockKey := fmt.Sprintf("%s:%s", lockType, restaurantId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for restaurantId", lockData, err)
		return func() {}, errors.New("could not obtain lock for restaurantId")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for restaurantId", lockData, err)
		return func() {}, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
