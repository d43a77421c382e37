package billing

import (
	"encoding/json"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	newRecord := func(key string) *BillingRecord {
		return &BillingRecord{
			Service:    "water",
			Username:   "u1",
			SecretHash: "$2a$10$fake",
			Payload:    json.RawMessage(`{"provider":"water","fields":{"balance":"42.30"}}`),
			DedupKey:   key,
			CreatedAt:  time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
		}
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("InsertBillingRecord", func() {
		When("the dedup key is new", func() {
			var inserted bool
			var err error
			var rec *BillingRecord

			BeforeEach(func() {
				rec = newRecord("water||42.3")
				inserted, err = db.InsertBillingRecord(rec)
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should report the record as inserted", func() {
				Expect(inserted).To(BeTrue())
			})

			It("should assign a store-generated id", func() {
				Expect(rec.ID).To(Equal(uint64(1)))
			})

			It("should make the key visible to HasDedupKey", func() {
				found, err := db.HasDedupKey("water||42.3")
				Expect(err).NotTo(HaveOccurred())
				Expect(found).To(BeTrue())
			})
		})

		When("the dedup key is already stored", func() {
			var inserted bool
			var err error

			BeforeEach(func() {
				_, setupErr := db.InsertBillingRecord(newRecord("water||42.3"))
				Expect(setupErr).NotTo(HaveOccurred())
				inserted, err = db.InsertBillingRecord(newRecord("water||42.3"))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should skip the insert", func() {
				Expect(inserted).To(BeFalse())
			})

			It("should keep exactly one record", func() {
				records, listErr := db.ListBillingRecords()
				Expect(listErr).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
			})
		})

		When("several records are inserted", func() {
			BeforeEach(func() {
				for _, key := range []string{"a", "b", "c"} {
					_, err := db.InsertBillingRecord(newRecord(key))
					Expect(err).NotTo(HaveOccurred())
				}
			})

			It("assigns monotonically increasing ids in insertion order", func() {
				records, err := db.ListBillingRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(3))
				Expect(records[0].ID).To(BeNumerically("<", records[1].ID))
				Expect(records[1].ID).To(BeNumerically("<", records[2].ID))
			})
		})
	})

	Describe("GetBillingRecord", func() {
		When("the record exists", func() {
			var id uint64

			BeforeEach(func() {
				rec := newRecord("water||42.3")
				_, err := db.InsertBillingRecord(rec)
				Expect(err).NotTo(HaveOccurred())
				id = rec.ID
			})

			It("round-trips the stored fields", func() {
				rec, err := db.GetBillingRecord(id)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Service).To(Equal("water"))
				Expect(string(rec.Payload)).To(ContainSubstring("42.30"))
			})
		})

		When("the record does not exist", func() {
			It("returns the not-found error", func() {
				_, err := db.GetBillingRecord(42)
				Expect(err).To(MatchError(ErrRecordNotFound))
			})
		})
	})

	Describe("AssignCategory", func() {
		var recordID uint64

		BeforeEach(func() {
			rec := newRecord("water||42.3")
			_, err := db.InsertBillingRecord(rec)
			Expect(err).NotTo(HaveOccurred())
			recordID = rec.ID

			Expect(db.SaveCategory(&Category{Name: "Utilities", Emoji: "💡"})).To(Succeed())
		})

		When("record and category exist", func() {
			It("persists the assignment", func() {
				Expect(db.AssignCategory(recordID, 1)).To(Succeed())

				rec, err := db.GetBillingRecord(recordID)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.CategoryID).To(HaveValue(Equal(uint64(1))))
			})
		})

		When("the record does not exist", func() {
			It("returns the record-not-found error", func() {
				Expect(db.AssignCategory(99, 1)).To(MatchError(ErrRecordNotFound))
			})
		})

		When("the category does not exist", func() {
			It("returns the category-not-found error and changes nothing", func() {
				Expect(db.AssignCategory(recordID, 99)).To(MatchError(ErrCategoryNotFound))

				rec, err := db.GetBillingRecord(recordID)
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.CategoryID).To(BeNil())
			})
		})
	})

	Describe("SaveCategory", func() {
		It("assigns increasing ids to new categories", func() {
			first := &Category{Name: "Home", Emoji: "🏠"}
			second := &Category{Name: "Utilities", Emoji: "💡"}
			Expect(db.SaveCategory(first)).To(Succeed())
			Expect(db.SaveCategory(second)).To(Succeed())
			Expect(first.ID).To(Equal(uint64(1)))
			Expect(second.ID).To(Equal(uint64(2)))
		})

		It("keeps an explicit id", func() {
			Expect(db.SaveCategory(&Category{ID: 9, Name: "Other", Emoji: "🧾"})).To(Succeed())

			categories, err := db.ListCategories()
			Expect(err).NotTo(HaveOccurred())
			Expect(categories).To(HaveLen(1))
			Expect(categories[0].ID).To(Equal(uint64(9)))
		})
	})

	Describe("ListCategories", func() {
		When("no categories exist", func() {
			It("returns an empty slice, not nil", func() {
				categories, err := db.ListCategories()
				Expect(err).NotTo(HaveOccurred())
				Expect(categories).NotTo(BeNil())
				Expect(categories).To(BeEmpty())
			})
		})
	})
})
