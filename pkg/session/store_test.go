// Copyright 2026 BWI GmbH and Cluster Forge contributors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.opendefense.cloud/forge/pkg/manifest"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		clock time.Time
	)

	BeforeEach(func() {
		clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		store = NewStore(
			WithTTL(time.Hour),
			withClock(func() time.Time { return clock }),
		)
		DeferCleanup(store.Stop)
	})

	newTree := func() *manifest.Tree {
		t := manifest.NewTree()
		t.AddString("README.md", "# test\n")
		return t
	}

	It("issues unique tokens", func() {
		a := store.Create(KindBootstrap, "prod", newTree(), "#!/bin/bash\n", true)
		b := store.Create(KindBootstrap, "prod", newTree(), "#!/bin/bash\n", true)

		Expect(a.Token).NotTo(BeEmpty())
		Expect(a.Token).NotTo(Equal(b.Token))
		Expect(a.ExpiresAt).To(Equal(clock.Add(time.Hour)))
	})

	It("returns stored sessions by token", func() {
		created := store.Create(KindUpdate, "prod", newTree(), "script", false)

		got, ok := store.Get(created.Token)
		Expect(ok).To(BeTrue())
		Expect(got.Kind).To(Equal(KindUpdate))
		Expect(got.ClusterName).To(Equal("prod"))
		Expect(got.Script).To(Equal("script"))
		Expect(got.Tree.Get("README.md")).NotTo(BeNil())
	})

	It("consumes one-time sessions on first access", func() {
		created := store.Create(KindBootstrap, "prod", newTree(), "script", true)

		_, ok := store.Get(created.Token)
		Expect(ok).To(BeTrue())

		_, ok = store.Get(created.Token)
		Expect(ok).To(BeFalse())
	})

	It("allows repeated access to reusable sessions", func() {
		created := store.Create(KindBootstrap, "prod", newTree(), "script", false)

		for range 3 {
			_, ok := store.Get(created.Token)
			Expect(ok).To(BeTrue())
		}
	})

	It("does not consume sessions on Peek", func() {
		created := store.Create(KindBootstrap, "prod", newTree(), "script", true)

		_, ok := store.Peek(created.Token)
		Expect(ok).To(BeTrue())

		_, ok = store.Get(created.Token)
		Expect(ok).To(BeTrue())
	})

	It("rejects expired tokens", func() {
		created := store.Create(KindBootstrap, "prod", newTree(), "script", true)

		clock = clock.Add(61 * time.Minute)
		_, ok := store.Get(created.Token)
		Expect(ok).To(BeFalse())
	})

	It("rejects unknown tokens", func() {
		_, ok := store.Get("no-such-token")
		Expect(ok).To(BeFalse())
	})

	It("evicts expired sessions", func() {
		store.Create(KindBootstrap, "prod", newTree(), "script", true)
		keep := store.Create(KindBootstrap, "staging", newTree(), "script", true)
		keep.ExpiresAt = clock.Add(2 * time.Hour)

		clock = clock.Add(90 * time.Minute)
		store.evictExpired()

		Expect(store.Len()).To(Equal(1))
	})

	It("deletes sessions explicitly", func() {
		created := store.Create(KindBootstrap, "prod", newTree(), "script", true)

		Expect(store.Delete(created.Token)).To(BeTrue())
		Expect(store.Delete(created.Token)).To(BeFalse())

		_, ok := store.Get(created.Token)
		Expect(ok).To(BeFalse())
	})
})
