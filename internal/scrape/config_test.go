package scrape

import (
	"os"
	"path/filepath"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("LoadConfig", func() {
	ginkgo.When("no path is given", func() {
		var cfg Config
		var err error

		ginkgo.BeforeEach(func() {
			cfg, err = LoadConfig("")
		})

		ginkgo.It("loads the embedded manifest", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		ginkgo.It("defines all three providers", func() {
			Expect(cfg.Providers).To(HaveKey(ServiceElectricity))
			Expect(cfg.Providers).To(HaveKey(ServiceTelecom))
			Expect(cfg.Providers).To(HaveKey(ServiceWater))
		})

		ginkgo.It("names dedup key fields per provider", func() {
			Expect(cfg.Providers[ServiceElectricity].DueDateField).To(Equal("dueDate"))
			Expect(cfg.Providers[ServiceElectricity].AmountField).To(Equal("paymentAmount"))
			Expect(cfg.Providers[ServiceWater].AmountField).To(Equal("balance"))
		})

		ginkgo.It("marks only the telecom provider as multi-entry", func() {
			Expect(cfg.Providers[ServiceTelecom].CardSelector).NotTo(BeEmpty())
			Expect(cfg.Providers[ServiceElectricity].CardSelector).To(BeEmpty())
			Expect(cfg.Providers[ServiceWater].CardSelector).To(BeEmpty())
		})
	})

	ginkgo.When("a manifest file is given", func() {
		var path string

		ginkgo.BeforeEach(func() {
			path = filepath.Join(ginkgo.GinkgoT().TempDir(), "providers.yaml")
		})

		ginkgo.It("fails when a provider is missing", func() {
			manifest := []byte("providers:\n  electricity:\n    login_url: x\n    billing_url: y\n    fields:\n      - name: a\n        selector: .a\n")
			Expect(os.WriteFile(path, manifest, 0644)).To(Succeed())
			_, err := LoadConfig(path)
			Expect(err).To(MatchError(ContainSubstring(`missing service "telecom"`)))
		})

		ginkgo.It("fails when the file does not exist", func() {
			_, err := LoadConfig(filepath.Join(path, "nope.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
