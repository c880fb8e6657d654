/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors_test

import (
	"errors"

	. "github.com/nabbar/netctl/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error Hierarchy", func() {
	BeforeEach(func() {
		// Register test error messages
		if !ExistInMapMessage(TestErrorCode1) {
			RegisterIdFctMessage(TestErrorCode1, func(code CodeError) string {
				switch code {
				case TestErrorCode1:
					return "test error 1"
				case TestErrorCode2:
					return "test error 2"
				case TestErrorCode3:
					return "test error 3"
				default:
					return ""
				}
			})
		}
	})

	Describe("Parent management", func() {
		It("should detect parent errors", func() {
			parent := errors.New("parent")
			err := TestErrorCode1.Error(parent)
			Expect(err.HasParent()).To(BeTrue())
		})

		It("should return parent errors", func() {
			parent := errors.New("parent")
			err := TestErrorCode1.Error(parent)
			parents := err.GetParent(false)
			Expect(parents).To(HaveLen(1))
		})

		It("should add parents dynamically", func() {
			err := TestErrorCode1.Error(nil)
			Expect(err.HasParent()).To(BeFalse())

			err.Add(errors.New("parent 1"))
			Expect(err.HasParent()).To(BeTrue())
		})

		It("should set parent", func() {
			err := TestErrorCode1.Error(nil)
			parent := TestErrorCode2.Error(nil)
			err.SetParent(parent)
			Expect(err.HasParent()).To(BeTrue())
		})

		It("should get recursive parents", func() {
			grandParent := errors.New("grandparent")
			parent := TestErrorCode2.Error(grandParent)
			err := TestErrorCode1.Error(parent)

			allParents := err.GetParent(true)
			Expect(len(allParents)).To(BeNumerically(">=", 1))
		})

		It("should get parent codes", func() {
			parent := TestErrorCode2.Error(nil)
			err := TestErrorCode1.Error(parent)
			codes := err.GetParentCode()
			Expect(codes).To(ContainElement(TestErrorCode2))
		})
	})

	Describe("Error hierarchy with Error interface", func() {
		It("should add Error interface type", func() {
			err1 := TestErrorCode1.Error(nil)
			err2 := TestErrorCode2.Error(nil)

			// Add Error interface to another Error
			err1.Add(err2)
			Expect(err1.HasParent()).To(BeTrue())
			Expect(err1.HasCode(TestErrorCode2)).To(BeTrue())
		})

		It("should prevent circular reference when adding errors", func() {
			err1 := TestErrorCode1.Error(nil)
			err2 := TestErrorCode2.Error(nil)

			// Add err1 to err2, then try to add err2 to err1
			err2.Add(err1)

			// When we add err2 (which contains err1) to err1, it should detect the circularity
			// and add only the parents of err2, not err2 itself
			err1.Add(err2)

			// Should not cause infinite loop when accessing properties
			Expect(err1.HasParent()).To(BeTrue())
			Expect(err1.HasCode(TestErrorCode1)).To(BeTrue())
		})
	})

	Describe("HasError and HasCode", func() {
		It("should detect error existence", func() {
			parent := errors.New("parent error")
			err := TestErrorCode1.Error(parent)
			Expect(err.HasError(parent)).To(BeTrue())
		})

		It("should detect code in error chain", func() {
			parent := TestErrorCode2.Error(nil)
			err := TestErrorCode1.Error(parent)
			Expect(err.HasCode(TestErrorCode2)).To(BeTrue())
		})

		It("should not detect non-existent code", func() {
			err := TestErrorCode1.Error(nil)
			Expect(err.HasCode(TestErrorCode2)).To(BeFalse())
		})

		It("should detect own code", func() {
			err := TestErrorCode1.Error(nil)
			Expect(err.HasCode(TestErrorCode1)).To(BeTrue())
		})
	})

	Describe("Unwrap", func() {
		It("should unwrap to parent", func() {
			parent := errors.New("parent")
			err := TestErrorCode1.Error(parent)
			unwrapped := err.Unwrap()
			Expect(unwrapped).ToNot(BeNil())
		})

		It("should return nil when no parent", func() {
			err := TestErrorCode1.Error(nil)
			unwrapped := err.Unwrap()
			Expect(unwrapped).To(BeNil())
		})

		It("should unwrap Error type parent", func() {
			parent := TestErrorCode2.Error(nil)
			err := TestErrorCode1.Error(parent)
			unwrapped := err.Unwrap()
			Expect(unwrapped).ToNot(BeNil())
		})
	})

	Describe("Error comparison", func() {
		It("should handle Is method between ers types", func() {
			err1 := TestErrorCode1.Error(nil)
			err2 := TestErrorCode1.Error(nil)

			// Test Is method
			Expect(err1.Is(err2)).To(BeTrue())
		})

		It("should detect different error codes with Is", func() {
			err1 := TestErrorCode1.Error(nil)
			err2 := TestErrorCode2.Error(nil)

			// The Is method compares trace first, then message, then code
			// Since err1 and err2 have different messages, Is should return false
			// But they are created from the same location, so traces might match
			// The actual result depends on the error messages
			result := err1.Is(err2)
			// With different codes and different messages, should be false or true depending on traces
			_ = result // Just verify it doesn't crash
			Expect(err1.IsCode(TestErrorCode1)).To(BeTrue())
			Expect(err2.IsCode(TestErrorCode2)).To(BeTrue())
		})

		It("should compare with standard errors", func() {
			err := TestErrorCode1.Error(nil)
			stdErr := errors.New("standard error")
			Expect(err.Is(stdErr)).To(BeFalse())
		})
	})

	Describe("GetError and GetErrorSlice", func() {
		It("should get error", func() {
			err := TestErrorCode1.Error(nil)
			foundErr := err.GetError()
			Expect(foundErr).ToNot(BeNil())
		})

		It("should get error for error with parent", func() {
			parent := TestErrorCode2.Error(nil)
			err := TestErrorCode1.Error(parent)
			foundErr := err.GetError()
			Expect(foundErr).ToNot(BeNil())
		})

		It("should get all errors in chain", func() {
			parent := TestErrorCode2.Error(nil)
			err := TestErrorCode1.Error(parent)
			errs := err.GetErrorSlice()
			Expect(len(errs)).To(BeNumerically(">=", 1))
		})
	})

	Describe("Map operations", func() {
		It("should map over errors", func() {
			parent1 := errors.New("parent 1")
			parent2 := errors.New("parent 2")
			err := TestErrorCode1.Error(parent1, parent2)

			var count int
			err.Map(func(e error) bool {
				count++
				return true
			})

			Expect(count).To(BeNumerically(">", 0))
		})

		It("should stop mapping when function returns false", func() {
			parent1 := errors.New("parent 1")
			parent2 := errors.New("parent 2")
			err := TestErrorCode1.Error(parent1, parent2)

			var count int
			err.Map(func(e error) bool {
				count++
				return false // Stop after first iteration
			})

			Expect(count).To(Equal(1))
		})
	})

	Describe("ContainsString", func() {
		It("should find string in error message", func() {
			err := TestErrorCode1.Error(nil)
			Expect(err.ContainsString("test error")).To(BeTrue())
		})

		It("should not find non-existent string", func() {
			err := TestErrorCode1.Error(nil)
			Expect(err.ContainsString("not found")).To(BeFalse())
		})

		It("should search in parent errors", func() {
			parent := errors.New("parent message")
			err := TestErrorCode1.Error(parent)
			Expect(err.ContainsString("parent message")).To(BeTrue())
		})
	})
})
