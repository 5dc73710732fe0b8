package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/vietnamngophan-bit/tra-trai-cay-sub000/config"
	"gorm.io/gorm"
)

// AcquireStorePostingLock serializes lot posting per store.
//
// On MySQL this uses an advisory lock so concurrent instances cannot
// interleave transaction writes for the same store. GET_LOCK is
// connection-scoped, so it must be called on the same *gorm.DB that does
// the posting transaction. On other dialects (tests run on sqlite) it
// falls back to redislock when redis is configured, otherwise the
// database transaction plus cost-basis row locks carry correctness on a
// single instance.
func AcquireStorePostingLock(ctx context.Context, tx *gorm.DB, storeCode string) (release func(), err error) {
	lockName := fmt.Sprintf("posting:%s", storeCode)

	if tx.Dialector.Name() == "mysql" {
		var ok int
		if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
			return nil, err
		}
		if ok != 1 {
			return nil, fmt.Errorf("could not acquire posting lock for store=%s", storeCode)
		}
		return func() {
			var _ok int
			_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
		}, nil
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, lockName, 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 100),
		})
		if err != nil {
			return nil, fmt.Errorf("could not acquire posting lock for store=%s: %w", storeCode, err)
		}
		return func() { _ = lock.Release(ctx) }, nil
	}

	return func() {}, nil
}
