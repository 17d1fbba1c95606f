package compliance

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadPolicy", func() {
	var (
		tmpDir string
		path   string
		policy Policy
		err    error
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	JustBeforeEach(func() {
		policy, err = LoadPolicy(path)
	})

	When("the document is a text file", func() {
		BeforeEach(func() {
			path = filepath.Join(tmpDir, "policy.txt")
			Expect(os.WriteFile(path, []byte("\n  Meals are capped at 75 USD per day.\n"), 0644)).To(Succeed())
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the trimmed text", func() {
			Expect(policy.Text).To(Equal("Meals are capped at 75 USD per day."))
			Expect(policy.Source).To(Equal(path))
		})
	})

	When("the document is empty", func() {
		BeforeEach(func() {
			path = filepath.Join(tmpDir, "policy.md")
			Expect(os.WriteFile(path, []byte("   \n"), 0644)).To(Succeed())
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ErrEmptyPolicy))
		})
	})

	When("the document does not exist", func() {
		BeforeEach(func() {
			path = filepath.Join(tmpDir, "missing.txt")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})
})

var _ = Describe("PolicySource", func() {
	It("should serve a loaded policy", func() {
		path := filepath.Join(GinkgoT().TempDir(), "policy.txt")
		Expect(os.WriteFile(path, []byte("Economy class only."), 0644)).To(Succeed())

		source := LoadPolicySource(path)
		Expect(source.Err()).NotTo(HaveOccurred())
		policy, err := source.Policy()
		Expect(err).NotTo(HaveOccurred())
		Expect(policy.Text).To(Equal("Economy class only."))
	})

	It("should never hand out a load failure as policy text", func() {
		source := LoadPolicySource(filepath.Join(GinkgoT().TempDir(), "missing.txt"))
		Expect(source.Err()).To(HaveOccurred())
		policy, err := source.Policy()
		Expect(err).To(MatchError(ErrPolicyUnavailable))
		Expect(policy.Text).To(BeEmpty())
	})

	It("should report a missing configuration", func() {
		_, err := LoadPolicySource("").Policy()
		Expect(err).To(MatchError(ErrPolicyUnavailable))
	})

	It("should reject blank static text", func() {
		_, err := StaticPolicySource("  ").Policy()
		Expect(err).To(MatchError(ErrPolicyUnavailable))
		Expect(err).To(MatchError(ErrEmptyPolicy))
	})
})
