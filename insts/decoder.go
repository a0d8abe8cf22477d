package insts

import "fmt"

// RV32I-subset opcode field values (word[6:0]).
const (
	opLoad   = 0x03
	opImm    = 0x13
	opAUIPC  = 0x17
	opStore  = 0x23
	opOp     = 0x33
	opLUI    = 0x37
	opBranch = 0x63
	opJALR   = 0x67
	opJAL    = 0x6F
	opSystem = 0x73
)

// Decoder decodes raw 32-bit RV32I-subset instruction words into
// Instruction records. Instruction decoding itself is a collaborator
// the core treats as an opaque external dependency; this is the
// reference implementation that makes the simulator runnable end to
// end.
type Decoder struct{}

// NewDecoder constructs a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}

func immI(word uint32) int32 {
	return signExtend(bits(word, 31, 20), 12)
}

func immS(word uint32) int32 {
	v := (bits(word, 31, 25) << 5) | bits(word, 11, 7)
	return signExtend(v, 12)
}

func immB(word uint32) int32 {
	v := (bits(word, 31, 31) << 12) | (bits(word, 7, 7) << 11) |
		(bits(word, 30, 25) << 5) | (bits(word, 11, 8) << 1)
	return signExtend(v, 13)
}

func immU(word uint32) int32 {
	return int32(word & 0xfffff000)
}

func immJ(word uint32) int32 {
	v := (bits(word, 31, 31) << 20) | (bits(word, 19, 12) << 12) |
		(bits(word, 20, 20) << 11) | (bits(word, 30, 21) << 1)
	return signExtend(v, 21)
}

// Decode decodes word (fetched from pc) into an Instruction tagged
// with id. Panics with a diagnostic on an encoding this subset does
// not support, matching the core's own fatal-abort policy for
// unsupported op values.
func (d *Decoder) Decode(word uint32, pc uint32, id uint64) *Instruction {
	opcode := word & 0x7f
	rd := uint8(bits(word, 11, 7))
	funct3 := uint8(bits(word, 14, 12))
	rs1 := uint8(bits(word, 19, 15))
	rs2 := uint8(bits(word, 24, 20))
	funct7 := bits(word, 31, 25)

	inst := &Instruction{ID: id, PC: pc, Func3: funct3}

	switch opcode {
	case opOp:
		inst.FU = FUALU
		inst.Rs1, inst.Rs2, inst.Rd = rs1, rs2, rd
		inst.Flags = ExeFlags{UseRs1: true, UseRs2: true, UseRd: true}
		switch funct3 {
		case 0b000:
			if funct7 == 0x20 {
				inst.Op = AluSUB
			} else {
				inst.Op = AluADD
			}
		case 0b001:
			inst.Op = AluSLL
		case 0b010:
			inst.Op = AluLTI
		case 0b011:
			inst.Op = AluLTU
		case 0b100:
			inst.Op = AluXOR
		case 0b101:
			if funct7 == 0x20 {
				inst.Op = AluSRA
			} else {
				inst.Op = AluSRL
			}
		case 0b110:
			inst.Op = AluOR
		case 0b111:
			inst.Op = AluAND
		default:
			panic(fmt.Sprintf("insts: unsupported R-type funct3=0x%x", funct3))
		}

	case opImm:
		inst.FU = FUALU
		inst.Rs1, inst.Rd = rs1, rd
		inst.Flags = ExeFlags{UseRs1: true, UseRd: true, AluS2Imm: true}
		switch funct3 {
		case 0b000:
			inst.Op = AluADD
			inst.Imm = immI(word)
		case 0b010:
			inst.Op = AluLTI
			inst.Imm = immI(word)
		case 0b011:
			inst.Op = AluLTU
			inst.Imm = immI(word)
		case 0b100:
			inst.Op = AluXOR
			inst.Imm = immI(word)
		case 0b110:
			inst.Op = AluOR
			inst.Imm = immI(word)
		case 0b111:
			inst.Op = AluAND
			inst.Imm = immI(word)
		case 0b001:
			inst.Op = AluSLL
			inst.Imm = int32(bits(word, 24, 20))
		case 0b101:
			inst.Imm = int32(bits(word, 24, 20))
			if funct7 == 0x20 {
				inst.Op = AluSRA
			} else {
				inst.Op = AluSRL
			}
		default:
			panic(fmt.Sprintf("insts: unsupported I-type funct3=0x%x", funct3))
		}

	case opLUI:
		inst.FU = FUALU
		inst.Op = AluADD
		inst.Rd = rd
		inst.Imm = immU(word)
		inst.Flags = ExeFlags{UseRd: true, AluS2Imm: true}

	case opAUIPC:
		inst.FU = FUALU
		inst.Op = AluADD
		inst.Rd = rd
		inst.Imm = immU(word)
		inst.Flags = ExeFlags{UseRd: true, AluS1PC: true, AluS2Imm: true}

	case opJAL:
		inst.FU = FUBRU
		inst.Br = BrJAL
		inst.Op = AluADD
		inst.Rd = rd
		inst.Imm = immJ(word)
		inst.Flags = ExeFlags{UseRd: true, AluS1PC: true, AluS2Imm: true}

	case opJALR:
		inst.FU = FUBRU
		inst.Br = BrJALR
		inst.Op = AluADD
		inst.Rs1, inst.Rd = rs1, rd
		inst.Imm = immI(word)
		inst.Flags = ExeFlags{UseRs1: true, UseRd: true, AluS2Imm: true}

	case opBranch:
		inst.FU = FUBRU
		inst.Op = AluADD
		inst.Rs1, inst.Rs2 = rs1, rs2
		inst.Imm = immB(word)
		inst.Flags = ExeFlags{UseRs1: true, UseRs2: true, AluS1PC: true, AluS2Imm: true}
		switch funct3 {
		case 0b000:
			inst.Br = BrBEQ
		case 0b001:
			inst.Br = BrBNE
		case 0b100:
			inst.Br = BrBLT
		case 0b101:
			inst.Br = BrBGE
		case 0b110:
			inst.Br = BrBLTU
		case 0b111:
			inst.Br = BrBGEU
		default:
			panic(fmt.Sprintf("insts: unsupported branch funct3=0x%x", funct3))
		}

	case opLoad:
		inst.FU = FULSU
		inst.Op = AluADD
		inst.Rs1, inst.Rd = rs1, rd
		inst.Imm = immI(word)
		inst.Flags = ExeFlags{UseRs1: true, UseRd: true, AluS2Imm: true, IsLoad: true}
		if funct3 != 0b000 && funct3 != 0b001 && funct3 != 0b010 && funct3 != 0b100 && funct3 != 0b101 {
			panic(fmt.Sprintf("insts: unsupported load funct3=0x%x", funct3))
		}

	case opStore:
		inst.FU = FULSU
		inst.Op = AluADD
		inst.Rs1, inst.Rs2 = rs1, rs2
		inst.Imm = immS(word)
		inst.Flags = ExeFlags{UseRs1: true, UseRs2: true, AluS2Imm: true, IsStore: true}
		if funct3 != 0b000 && funct3 != 0b001 && funct3 != 0b010 {
			panic(fmt.Sprintf("insts: unsupported store funct3=0x%x", funct3))
		}

	case opSystem:
		d.decodeSystem(word, funct3, rs1, rd, inst)

	default:
		panic(fmt.Sprintf("insts: unsupported opcode=0x%x", opcode))
	}

	return inst
}

// decodeSystem handles ECALL/EBREAK (program-exit convention) and the
// Zicsr read-modify-write CSR instructions this subset implements
// (CSRRS/CSRRC and their uimm variants). CSRRW/CSRRWI are not
// supported: their "discard the old CSR value entirely" semantics
// cannot be expressed through the ALU-machinery operand-selection
// rules the SFU shares with every other functional unit (alu_s2 is
// always the live CSR read when alu_s2_imm is false), so they fall
// through to the unsupported-op abort, same as any other unimplemented
// encoding.
func (d *Decoder) decodeSystem(word uint32, funct3 uint8, rs1, rd uint8, inst *Instruction) {
	if funct3 == 0 {
		imm := bits(word, 31, 20)
		inst.FU = FUALU
		inst.Op = AluNone
		if imm == 0 || imm == 1 {
			// ECALL and EBREAK both signal program termination in this
			// subset; real riscv-tests binaries terminate via ECALL,
			// this spec's own example traces use EBREAK.
			inst.Flags = ExeFlags{IsExit: true}
			return
		}
		panic(fmt.Sprintf("insts: unsupported SYSTEM imm=0x%x", imm))
	}

	inst.FU = FUSFU
	inst.Imm = int32(bits(word, 31, 20)) // CSR address
	inst.Rd = rd

	switch funct3 {
	case 0b010: // CSRRS
		inst.Op = AluOR
		inst.Rs1 = rs1
		inst.Flags = ExeFlags{UseRs1: true, UseRd: true}
	case 0b011: // CSRRC
		inst.Op = AluAND
		inst.Rs1 = rs1
		inst.Flags = ExeFlags{UseRs1: true, UseRd: true, AluS1Inv: true}
	case 0b110: // CSRRSI
		inst.Op = AluOR
		inst.Rs1 = rs1
		inst.Flags = ExeFlags{UseRd: true, AluS1Rs1: true}
	case 0b111: // CSRRCI
		inst.Op = AluAND
		inst.Rs1 = rs1
		inst.Flags = ExeFlags{UseRd: true, AluS1Rs1: true, AluS1Inv: true}
	default:
		panic(fmt.Sprintf("insts: unsupported CSR funct3=0x%x", funct3))
	}
}
