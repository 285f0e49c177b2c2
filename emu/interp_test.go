package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tcamsim/emu"
	"github.com/sarchlab/tcamsim/ir"
)

// Action helpers in the shape the IR loader would produce.

func move(n uint64) ir.Action {
	return ir.MoveCursor{NumBits: num(n, 32)}
}

func extract(name, source string, start, end uint64) ir.Action {
	return ir.ExtractHeader{ID: name, Loc: constLocExp(source, start, end)}
}

func copyData(src ir.IntExp, dst ir.LocationExp) ir.Action {
	return ir.CopyData{Src: src, Dst: dst}
}

var _ = Describe("Actions", func() {
	var interp *emu.Interpreter

	BeforeEach(func() {
		interp = emu.NewInterpreter(nil, freshState(), vec(testPacket))
	})

	apply := func(a ir.Action) {
		Expect(interp.ApplyAction(a)).To(Succeed())
	}

	applyError := func(a ir.Action) {
		err := interp.ApplyAction(a)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, emu.ErrRuntime)).To(BeTrue())
	}

	Describe("MoveCursor", func() {
		It("should advance the cursor", func() {
			apply(move(4))
			Expect(interp.State().Cursor).To(Equal(4))

			apply(move(8))
			Expect(interp.State().Cursor).To(Equal(12))
		})

		It("should fail past the end of the packet", func() {
			applyError(move(9999))
		})
	})

	Describe("ExtractHeader", func() {
		It("should extract cursor-relative packet ranges", func() {
			apply(extract("h1", "packet", 0, 0))
			Expect(interp.State().Headers["h1"].Equal(vec("0b1"))).To(BeTrue())

			apply(extract("h2", "packet", 1, 4))
			Expect(interp.State().Headers["h2"].Equal(vec("0b1110"))).To(BeTrue())

			apply(move(5))
			apply(extract("h3", "packet", 1, 4))
			Expect(interp.State().Headers["h3"].Equal(vec("0b0011"))).To(BeTrue())
		})

		It("should record the extraction order", func() {
			apply(extract("h1", "packet", 0, 0))
			apply(extract("h2", "packet", 1, 4))

			Expect(interp.State().HeaderOrder).To(Equal([]string{"h1", "h2"}))
		})

		It("should fail on non-packet sources", func() {
			applyError(extract("h4", "r0", 0, 1))
		})

		It("should fail on duplicate header names", func() {
			apply(extract("h1", "packet", 0, 0))
			applyError(extract("h1", "packet", 0, 1))
		})
	})

	Describe("CopyData", func() {
		It("should copy packet and store ranges into stores", func() {
			apply(copyData(constLocExp("packet", 0, 15), constLocExp("r0", 0, 15)))
			apply(copyData(constLocExp("packet", 4, 19), constLocExp("r1", 0, 15)))

			apply(move(32))
			apply(copyData(constLocExp("packet", 8, 15), constLocExp("r2", 0, 7)))

			Expect(interp.State().Stores["r0"].Value.Equal(vec("0xF0F0"))).To(BeTrue())
			Expect(interp.State().Stores["r1"].Value.Equal(vec("0x0F0F"))).To(BeTrue())
			Expect(interp.State().Stores["r2"].Value.Equal(vec("0xFF00"))).To(BeTrue())
		})

		It("should zero the rest of a store without masked writes", func() {
			interp.State().Stores["r1"].Value = vec("0x0F0F")

			apply(copyData(constLocExp("r1", 8, 15), constLocExp("state", 16, 23)))

			Expect(interp.State().Stores["state"].Value.Equal(vec("0x00000F00"))).To(BeTrue())
		})

		It("should fail when the source and destination lengths differ", func() {
			applyError(copyData(constLocExp("r0", 0, 15), constLocExp("r1", 8, 15)))
		})

		It("should fail when the source is not readable", func() {
			applyError(copyData(constLocExp("state", 0, 15), constLocExp("r0", 0, 15)))
		})

		It("should fail when the destination is not writeable", func() {
			applyError(copyData(constLocExp("r0", 0, 15), constLocExp("metadata", 0, 15)))
		})

		It("should fail when the destination is too small", func() {
			applyError(copyData(constLocExp("metadata", 0, 31), constLocExp("r0", 0, 31)))
		})

		It("should fail when the source is too small", func() {
			applyError(copyData(constLocExp("r0", 0, 31), constLocExp("state", 0, 31)))
		})

		It("should fail on writes to the packet", func() {
			applyError(copyData(num(1, 1), constLocExp("packet", 0, 0)))
		})

		It("should fail on unknown destination stores", func() {
			applyError(copyData(num(1, 1), constLocExp("nosuch", 0, 0)))
		})
	})
})

// stage1Table builds an arbitrary table for exercising the stage loop. The first rule
// wants the last bit of r0 set, the second wants the penultimate bit of r1.
func stage1Table() ir.Table {
	rule1 := ir.Rule{
		Patterns: []ir.Pattern{
			{Value: vec("0xffff"), Mask: vec("0x0001")},
			{Value: vec("0xff00"), Mask: vec("0x0002")},
			{Value: vec("0xffffff"), Mask: vec("0x000000")},
		},
		Actions: ir.NewActionSet([]ir.Action{
			extract("h1", "packet", 4, 7),
			extract("h2", "packet", 8, 15),
			copyData(constLocExp("packet", 8, 15), constLocExp("state", 8, 15)),
			move(16),
		}),
	}
	rule2 := ir.Rule{
		Patterns: []ir.Pattern{
			{Value: vec("0xfff0"), Mask: vec("0x0001")},
			{Value: vec("0xff02"), Mask: vec("0x0002")},
			{Value: vec("0xffffff"), Mask: vec("0x000000")},
		},
		Actions: ir.NewActionSet([]ir.Action{
			extract("h1", "packet", 0, 3),
			move(4),
			copyData(constLocExp("packet", 0, 3), constLocExp("flags", 0, 3)),
		}),
	}
	return ir.Table{rule1, rule2}
}

var _ = Describe("Interpreter", func() {
	var state *emu.MachineState

	BeforeEach(func() {
		state = freshState()
	})

	newInterp := func() *emu.Interpreter {
		return emu.NewInterpreter(ir.TCAM{stage1Table()}, state, vec(testPacket))
	}

	Describe("Step", func() {
		It("should apply the first matching rule's actions, moves last", func() {
			state.Stores["r0"].Value = vec("0x0001")

			interp := newInterp()
			Expect(interp.Step()).To(Succeed())

			Expect(state.Headers["h1"].Equal(vec("0x0"))).To(BeTrue())
			Expect(state.Headers["h2"].Equal(vec("0xf0"))).To(BeTrue())
			Expect(state.Stores["state"].Value.Equal(vec("0x00f00000"))).To(BeTrue())
			Expect(state.Cursor).To(Equal(16))
			Expect(state.Stage).To(Equal(1))
		})

		It("should fall through to later rules", func() {
			state.Stores["r1"].Value = vec("0x0002")

			interp := newInterp()
			Expect(interp.Step()).To(Succeed())

			Expect(state.Headers["h1"].Equal(vec("0xf"))).To(BeTrue())
			Expect(state.Headers).NotTo(HaveKey("h2"))
			Expect(state.Stores["flags"].Value.Equal(vec("0xf00faaaa"))).To(BeTrue())
			Expect(state.Cursor).To(Equal(4))
		})

		It("should apply nothing when no rule matches", func() {
			interp := newInterp()
			Expect(interp.Step()).To(Succeed())

			Expect(state.Headers).To(BeEmpty())
			Expect(state.Stores["state"].Value.Equal(vec("0x000f0000"))).To(BeTrue())
			Expect(state.Stores["flags"].Value.Equal(vec("0x000faaaa"))).To(BeTrue())
			Expect(state.Cursor).To(Equal(0))
			Expect(state.Stage).To(Equal(1))
		})

		It("should be a no-op past the last stage", func() {
			interp := newInterp()
			Expect(interp.Step()).To(Succeed())
			Expect(interp.Step()).To(Succeed())

			Expect(state.Stage).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("should execute exactly the remaining stages", func() {
			interp := emu.NewInterpreter(
				ir.TCAM{stage1Table(), stage1Table(), stage1Table()},
				state, vec(testPacket))

			Expect(interp.Run()).To(Succeed())
			Expect(state.Stage).To(Equal(3))
		})
	})
})

var _ = Describe("ValidateKeysPatterns", func() {
	It("should accept matching keys and patterns", func() {
		state := freshState()
		err := emu.ValidateKeysPatterns(ir.TCAM{stage1Table()}, state)

		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject mismatched key counts", func() {
		state := freshState()
		state.Keys = state.Keys[:2]

		err := emu.ValidateKeysPatterns(ir.TCAM{stage1Table()}, state)
		Expect(err).To(HaveOccurred())
	})

	It("should reject mismatched key widths", func() {
		state := freshState()
		state.Keys[0] = ir.Location{Name: "r0", Start: 0, End: 7}

		err := emu.ValidateKeysPatterns(ir.TCAM{stage1Table()}, state)
		Expect(err).To(HaveOccurred())
	})

	It("should reject a TCAM with no rules", func() {
		err := emu.ValidateKeysPatterns(ir.TCAM{}, freshState())
		Expect(err).To(HaveOccurred())
	})
})
