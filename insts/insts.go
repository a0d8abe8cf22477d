// Package insts provides the decoded-instruction record produced by
// the RV32I-subset decoder and consumed by the reservation stations,
// functional units, and reference interpreter.
package insts

// FUKind identifies which functional unit kind executes an instruction.
type FUKind uint8

const (
	FUNone FUKind = iota
	FUALU
	FUBRU
	FULSU
	FUSFU
)

func (k FUKind) String() string {
	switch k {
	case FUALU:
		return "ALU"
	case FUBRU:
		return "BRU"
	case FULSU:
		return "LSU"
	case FUSFU:
		return "SFU"
	default:
		return "NONE"
	}
}

// AluOp is the arithmetic/logic operation an instruction feeds to the
// ALU machinery (directly, for ALU-kind instructions, or indirectly,
// for address/target/CSR computation on LSU/BRU/SFU instructions).
type AluOp uint8

const (
	AluNone AluOp = iota
	AluADD
	AluSUB
	AluAND
	AluOR
	AluXOR
	AluSLL
	AluSRL
	AluSRA
	AluLTI
	AluLTU
)

func (op AluOp) String() string {
	switch op {
	case AluADD:
		return "ADD"
	case AluSUB:
		return "SUB"
	case AluAND:
		return "AND"
	case AluOR:
		return "OR"
	case AluXOR:
		return "XOR"
	case AluSLL:
		return "SLL"
	case AluSRL:
		return "SRL"
	case AluSRA:
		return "SRA"
	case AluLTI:
		return "LTI"
	case AluLTU:
		return "LTU"
	default:
		return "NONE"
	}
}

// BrOp is the branch/jump condition an instruction feeds to the BRU.
type BrOp uint8

const (
	BrNone BrOp = iota
	BrJAL
	BrJALR
	BrBEQ
	BrBNE
	BrBLT
	BrBGE
	BrBLTU
	BrBGEU
)

func (op BrOp) String() string {
	switch op {
	case BrJAL:
		return "JAL"
	case BrJALR:
		return "JALR"
	case BrBEQ:
		return "BEQ"
	case BrBNE:
		return "BNE"
	case BrBLT:
		return "BLT"
	case BrBGE:
		return "BGE"
	case BrBLTU:
		return "BLTU"
	case BrBGEU:
		return "BGEU"
	default:
		return "NONE"
	}
}

// ExeFlags is the bitset attached to every decoded instruction that
// governs renaming (UseRs1/UseRs2/UseRd), ALU operand selection
// (AluS1PC/AluS1Rs1/AluS1Inv/AluS2Imm), the LSU dispatch (IsLoad/
// IsStore), and the commit-time exit convention (IsExit).
type ExeFlags struct {
	UseRs1 bool
	UseRs2 bool
	UseRd  bool

	// AluS1PC selects the PC as ALU operand 1 (branch/AUIPC targets).
	AluS1PC bool
	// AluS1Rs1 treats the raw Rs1 field as a literal operand-1 value
	// instead of a register to read (CSR-immediate forms, where the
	// field holds a 5-bit zimm rather than a register index).
	AluS1Rs1 bool
	// AluS1Inv inverts operand 1 before the ALU op is applied (used
	// by CSRRC/CSRRCI to realize "AND NOT" from AND).
	AluS1Inv bool
	// AluS2Imm selects the sign-extended immediate as ALU operand 2
	// instead of the rs2 value.
	AluS2Imm bool

	IsLoad  bool
	IsStore bool
	IsExit  bool
}

// Instruction is the immutable decoded-instruction record. Once
// constructed by Decode it is never mutated; the reservation station,
// functional units, and reference interpreter only ever read it.
type Instruction struct {
	ID    uint64
	PC    uint32
	FU    FUKind
	Op    AluOp
	Br    BrOp
	Rs1   uint8
	Rs2   uint8
	Rd    uint8
	Imm   int32
	Func3 uint8
	Flags ExeFlags
}
