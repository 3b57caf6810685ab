// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package session

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/redis/go-redis/v9"

	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// storeFixture is one Store under test plus a way to move its clock.
type storeFixture struct {
	store   Store
	now     func() time.Time
	advance func(time.Duration)
	cleanup func()
}

// storeContract registers the behaviour every Store must have.
func storeContract(setup func() storeFixture) {
	var (
		fx  storeFixture
		ctx context.Context
	)

	newRecord := func(ttl time.Duration) *Record {
		_, hash, err := GenerateToken()
		Expect(err).NotTo(HaveOccurred())
		now := fx.now()
		return &Record{
			TokenHash: hash,
			Identity:  auth.SessionIdentity{AccountID: ulid.Make()},
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		fx = setup()
	})

	AfterEach(func() {
		fx.cleanup()
	})

	It("loads what was saved", func() {
		rec := newRecord(time.Hour)
		Expect(fx.store.Save(ctx, rec)).To(Succeed())

		got, err := fx.store.Load(ctx, rec.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.TokenHash).To(Equal(rec.TokenHash))
		Expect(got.Identity).To(Equal(rec.Identity))
		Expect(got.ExpiresAt).To(BeTemporally("~", rec.ExpiresAt, time.Second))
	})

	It("reports unknown hashes as ErrNotFound", func() {
		_, err := fx.store.Load(ctx, HashToken("never-issued"))
		Expect(err).To(MatchError(ErrNotFound))
	})

	It("deletes records and tolerates repeated deletes", func() {
		rec := newRecord(time.Hour)
		Expect(fx.store.Save(ctx, rec)).To(Succeed())

		Expect(fx.store.Delete(ctx, rec.TokenHash)).To(Succeed())
		Expect(fx.store.Delete(ctx, rec.TokenHash)).To(Succeed())

		_, err := fx.store.Load(ctx, rec.TokenHash)
		Expect(err).To(MatchError(ErrNotFound))
	})

	It("treats expired records as absent", func() {
		rec := newRecord(time.Minute)
		Expect(fx.store.Save(ctx, rec)).To(Succeed())

		fx.advance(2 * time.Minute)

		_, err := fx.store.Load(ctx, rec.TokenHash)
		Expect(err).To(MatchError(ErrNotFound))

		_, err = fx.store.DeleteExpired(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps records of different sessions apart", func() {
		a, b := newRecord(time.Hour), newRecord(time.Hour)
		Expect(fx.store.Save(ctx, a)).To(Succeed())
		Expect(fx.store.Save(ctx, b)).To(Succeed())
		Expect(fx.store.Delete(ctx, a.TokenHash)).To(Succeed())

		got, err := fx.store.Load(ctx, b.TokenHash)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Identity).To(Equal(b.Identity))
	})

	It("rejects records without a token hash", func() {
		rec := newRecord(time.Hour)
		rec.TokenHash = ""
		Expect(fx.store.Save(ctx, rec)).NotTo(Succeed())
	})
}

var _ = Describe("MemoryStore", func() {
	storeContract(func() storeFixture {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s := NewMemoryStore()
		s.clock = func() time.Time { return now }
		return storeFixture{
			store:   s,
			now:     func() time.Time { return now },
			advance: func(d time.Duration) { now = now.Add(d) },
			cleanup: func() {},
		}
	})

	It("purges only expired records", func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		s := NewMemoryStore()
		s.clock = func() time.Time { return now }
		ctx := context.Background()

		Expect(s.Save(ctx, &Record{TokenHash: "short", ExpiresAt: now.Add(time.Minute)})).To(Succeed())
		Expect(s.Save(ctx, &Record{TokenHash: "long", ExpiresAt: now.Add(time.Hour)})).To(Succeed())
		now = now.Add(5 * time.Minute)

		n, err := s.DeleteExpired(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
		Expect(s.Len()).To(Equal(1))
	})
})

var _ = Describe("RedisStore", func() {
	storeContract(func() storeFixture {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

		now := time.Now()
		s := NewRedisStore(client, "test:")
		s.clock = func() time.Time { return now }
		return storeFixture{
			store: s,
			now:   func() time.Time { return now },
			advance: func(d time.Duration) {
				now = now.Add(d)
				mr.FastForward(d)
			},
			cleanup: func() {
				_ = client.Close()
				mr.Close()
			},
		}
	})

	It("stores keys under the prefix with a TTL", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		s := NewRedisStore(client, "")
		rec := &Record{TokenHash: "abc", ExpiresAt: time.Now().Add(time.Hour)}
		Expect(s.Save(context.Background(), rec)).To(Succeed())

		Expect(mr.Exists(DefaultRedisPrefix + "abc")).To(BeTrue())
		Expect(mr.TTL(DefaultRedisPrefix + "abc")).To(BeNumerically(">", 59*time.Minute))
		Expect(s.Ping(context.Background())).To(Succeed())
	})

	It("refuses to save an already expired record", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		s := NewRedisStore(client, "")
		err = s.Save(context.Background(), &Record{TokenHash: "abc", ExpiresAt: time.Now().Add(-time.Second)})
		Expect(err).To(HaveOccurred())
	})

	It("reports an unreachable server as an error, not as not found", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		mr.Close()

		_, err = NewRedisStore(client, "").Load(context.Background(), "abc")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(ErrNotFound))
	})

	It("reports corrupt payloads as errors", func() {
		mr, err := miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		Expect(mr.Set(DefaultRedisPrefix+"abc", "{not json")).To(Succeed())
		_, err = NewRedisStore(client, "").Load(context.Background(), "abc")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(ErrNotFound))
	})
})
