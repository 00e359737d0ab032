package sh2

// register enums for RegRead / RegWrite
const (
	R0 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	SR
	GBR
	VBR
	MACH
	MACL
	PR
	PC
)

const SP = R15

var regNames = map[int]string{
	R0: "r0", R1: "r1", R2: "r2", R3: "r3", R4: "r4", R5: "r5", R6: "r6", R7: "r7",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12", R13: "r13", R14: "r14", R15: "r15",
	SR: "sr", GBR: "gbr", VBR: "vbr", MACH: "mach", MACL: "macl", PR: "pr", PC: "pc",
}

// status register bits
const (
	SR_T     = 1 << 0
	SR_S     = 1 << 1
	SR_I     = 0xf << 4
	SR_Q     = 1 << 8
	SR_M     = 1 << 9
	SR_MASK  = SR_M | SR_Q | SR_I | SR_S | SR_T
	SR_ISHFT = 4
)

// exception vectors
const (
	VEC_POWER_PC    = 0
	VEC_POWER_SP    = 1
	VEC_ILLEGAL     = 4
	VEC_SLOT        = 6
	VEC_ADDR_ERR    = 9
	VEC_NMI         = 11
	VEC_TRAPA_FIRST = 32
)

const (
	// cycles charged for accepting an interrupt or raising an exception
	excCycles = 8
	intCycles = 13
)

type Kind uint8

const (
	OP_ILLEGAL Kind = iota

	// 0000
	OP_STC_SR
	OP_STC_GBR
	OP_STC_VBR
	OP_BSRF
	OP_BRAF
	OP_MOVB_S0
	OP_MOVW_S0
	OP_MOVL_S0
	OP_MUL_L
	OP_CLRT
	OP_SETT
	OP_CLRMAC
	OP_NOP
	OP_DIV0U
	OP_MOVT
	OP_STS_MACH
	OP_STS_MACL
	OP_STS_PR
	OP_RTS
	OP_SLEEP
	OP_RTE
	OP_MOVB_L0
	OP_MOVW_L0
	OP_MOVL_L0
	OP_MAC_L

	// 0001
	OP_MOVL_S4

	// 0010
	OP_MOVB_S
	OP_MOVW_S
	OP_MOVL_S
	OP_MOVB_M
	OP_MOVW_M
	OP_MOVL_M
	OP_DIV0S
	OP_TST
	OP_AND
	OP_XOR
	OP_OR
	OP_CMP_STR
	OP_XTRCT
	OP_MULU_W
	OP_MULS_W

	// 0011
	OP_CMP_EQ
	OP_CMP_HS
	OP_CMP_GE
	OP_DIV1
	OP_DMULU
	OP_CMP_HI
	OP_CMP_GT
	OP_SUB
	OP_SUBC
	OP_SUBV
	OP_ADD
	OP_DMULS
	OP_ADDC
	OP_ADDV

	// 0100
	OP_SHLL
	OP_DT
	OP_SHAL
	OP_SHLR
	OP_CMP_PZ
	OP_SHAR
	OP_STSL_MACH
	OP_STSL_MACL
	OP_STSL_PR
	OP_STCL_SR
	OP_STCL_GBR
	OP_STCL_VBR
	OP_ROTL
	OP_ROTCL
	OP_ROTR
	OP_CMP_PL
	OP_ROTCR
	OP_LDSL_MACH
	OP_LDSL_MACL
	OP_LDSL_PR
	OP_LDCL_SR
	OP_LDCL_GBR
	OP_LDCL_VBR
	OP_SHLL2
	OP_SHLL8
	OP_SHLL16
	OP_SHLR2
	OP_SHLR8
	OP_SHLR16
	OP_LDS_MACH
	OP_LDS_MACL
	OP_LDS_PR
	OP_JSR
	OP_TAS
	OP_JMP
	OP_LDC_SR
	OP_LDC_GBR
	OP_LDC_VBR
	OP_MAC_W

	// 0101
	OP_MOVL_L4

	// 0110
	OP_MOVB_L
	OP_MOVW_L
	OP_MOVL_L
	OP_MOV
	OP_MOVB_P
	OP_MOVW_P
	OP_MOVL_P
	OP_NOT
	OP_SWAP_B
	OP_SWAP_W
	OP_NEGC
	OP_NEG
	OP_EXTU_B
	OP_EXTU_W
	OP_EXTS_B
	OP_EXTS_W

	// 0111
	OP_ADDI

	// 1000
	OP_MOVB_S4
	OP_MOVW_S4
	OP_MOVB_L4
	OP_MOVW_L4
	OP_CMP_IM
	OP_BT
	OP_BF
	OP_BT_S
	OP_BF_S

	// 1001
	OP_MOVW_I

	// 1010, 1011
	OP_BRA
	OP_BSR

	// 1100
	OP_MOVB_SG
	OP_MOVW_SG
	OP_MOVL_SG
	OP_TRAPA
	OP_MOVB_LG
	OP_MOVW_LG
	OP_MOVL_LG
	OP_MOVA
	OP_TSTI
	OP_ANDI
	OP_XORI
	OP_ORI
	OP_TSTM
	OP_ANDM
	OP_XORM
	OP_ORM

	// 1101, 1110
	OP_MOVL_I
	OP_MOVI

	OP_COUNT
)

const (
	fBranch = 1 << iota
	fDelayed
	fSlotIllegal
)

type kindInfo struct {
	name   string
	cycles uint8
	taken  uint8
	flags  int
}

var kinds = [OP_COUNT]kindInfo{
	OP_ILLEGAL: {"illegal", excCycles, 0, fSlotIllegal},

	OP_STC_SR:   {"stc sr,rn", 1, 0, 0},
	OP_STC_GBR:  {"stc gbr,rn", 1, 0, 0},
	OP_STC_VBR:  {"stc vbr,rn", 1, 0, 0},
	OP_BSRF:     {"bsrf rm", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_BRAF:     {"braf rm", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_MOVB_S0:  {"mov.b rm,@(r0,rn)", 1, 0, 0},
	OP_MOVW_S0:  {"mov.w rm,@(r0,rn)", 1, 0, 0},
	OP_MOVL_S0:  {"mov.l rm,@(r0,rn)", 1, 0, 0},
	OP_MUL_L:    {"mul.l rm,rn", 2, 0, 0},
	OP_CLRT:     {"clrt", 1, 0, 0},
	OP_SETT:     {"sett", 1, 0, 0},
	OP_CLRMAC:   {"clrmac", 1, 0, 0},
	OP_NOP:      {"nop", 1, 0, 0},
	OP_DIV0U:    {"div0u", 1, 0, 0},
	OP_MOVT:     {"movt rn", 1, 0, 0},
	OP_STS_MACH: {"sts mach,rn", 1, 0, 0},
	OP_STS_MACL: {"sts macl,rn", 1, 0, 0},
	OP_STS_PR:   {"sts pr,rn", 1, 0, 0},
	OP_RTS:      {"rts", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_SLEEP:    {"sleep", 3, 0, fBranch},
	OP_RTE:      {"rte", 4, 0, fBranch | fDelayed | fSlotIllegal},
	OP_MOVB_L0:  {"mov.b @(r0,rm),rn", 1, 0, 0},
	OP_MOVW_L0:  {"mov.w @(r0,rm),rn", 1, 0, 0},
	OP_MOVL_L0:  {"mov.l @(r0,rm),rn", 1, 0, 0},
	OP_MAC_L:    {"mac.l @rm+,@rn+", 3, 0, 0},

	OP_MOVL_S4: {"mov.l rm,@(disp,rn)", 1, 0, 0},

	OP_MOVB_S:   {"mov.b rm,@rn", 1, 0, 0},
	OP_MOVW_S:   {"mov.w rm,@rn", 1, 0, 0},
	OP_MOVL_S:   {"mov.l rm,@rn", 1, 0, 0},
	OP_MOVB_M:   {"mov.b rm,@-rn", 1, 0, 0},
	OP_MOVW_M:   {"mov.w rm,@-rn", 1, 0, 0},
	OP_MOVL_M:   {"mov.l rm,@-rn", 1, 0, 0},
	OP_DIV0S:    {"div0s rm,rn", 1, 0, 0},
	OP_TST:      {"tst rm,rn", 1, 0, 0},
	OP_AND:      {"and rm,rn", 1, 0, 0},
	OP_XOR:      {"xor rm,rn", 1, 0, 0},
	OP_OR:       {"or rm,rn", 1, 0, 0},
	OP_CMP_STR:  {"cmp/str rm,rn", 1, 0, 0},
	OP_XTRCT:    {"xtrct rm,rn", 1, 0, 0},
	OP_MULU_W:   {"mulu.w rm,rn", 1, 0, 0},
	OP_MULS_W:   {"muls.w rm,rn", 1, 0, 0},
	OP_CMP_EQ:   {"cmp/eq rm,rn", 1, 0, 0},
	OP_CMP_HS:   {"cmp/hs rm,rn", 1, 0, 0},
	OP_CMP_GE:   {"cmp/ge rm,rn", 1, 0, 0},
	OP_DIV1:     {"div1 rm,rn", 1, 0, 0},
	OP_DMULU:    {"dmulu.l rm,rn", 2, 0, 0},
	OP_CMP_HI:   {"cmp/hi rm,rn", 1, 0, 0},
	OP_CMP_GT:   {"cmp/gt rm,rn", 1, 0, 0},
	OP_SUB:      {"sub rm,rn", 1, 0, 0},
	OP_SUBC:     {"subc rm,rn", 1, 0, 0},
	OP_SUBV:     {"subv rm,rn", 1, 0, 0},
	OP_ADD:      {"add rm,rn", 1, 0, 0},
	OP_DMULS:    {"dmuls.l rm,rn", 2, 0, 0},
	OP_ADDC:     {"addc rm,rn", 1, 0, 0},
	OP_ADDV:     {"addv rm,rn", 1, 0, 0},
	OP_SHLL:     {"shll rn", 1, 0, 0},
	OP_DT:       {"dt rn", 1, 0, 0},
	OP_SHAL:     {"shal rn", 1, 0, 0},
	OP_SHLR:     {"shlr rn", 1, 0, 0},
	OP_CMP_PZ:   {"cmp/pz rn", 1, 0, 0},
	OP_SHAR:     {"shar rn", 1, 0, 0},
	OP_STSL_MACH: {"sts.l mach,@-rn", 1, 0, 0},
	OP_STSL_MACL: {"sts.l macl,@-rn", 1, 0, 0},
	OP_STSL_PR:   {"sts.l pr,@-rn", 1, 0, 0},
	OP_STCL_SR:   {"stc.l sr,@-rn", 2, 0, 0},
	OP_STCL_GBR:  {"stc.l gbr,@-rn", 2, 0, 0},
	OP_STCL_VBR:  {"stc.l vbr,@-rn", 2, 0, 0},
	OP_ROTL:      {"rotl rn", 1, 0, 0},
	OP_ROTCL:     {"rotcl rn", 1, 0, 0},
	OP_ROTR:      {"rotr rn", 1, 0, 0},
	OP_CMP_PL:    {"cmp/pl rn", 1, 0, 0},
	OP_ROTCR:     {"rotcr rn", 1, 0, 0},
	OP_LDSL_MACH: {"lds.l @rm+,mach", 1, 0, 0},
	OP_LDSL_MACL: {"lds.l @rm+,macl", 1, 0, 0},
	OP_LDSL_PR:   {"lds.l @rm+,pr", 1, 0, 0},
	OP_LDCL_SR:   {"ldc.l @rm+,sr", 3, 0, 0},
	OP_LDCL_GBR:  {"ldc.l @rm+,gbr", 3, 0, 0},
	OP_LDCL_VBR:  {"ldc.l @rm+,vbr", 3, 0, 0},
	OP_SHLL2:     {"shll2 rn", 1, 0, 0},
	OP_SHLL8:     {"shll8 rn", 1, 0, 0},
	OP_SHLL16:    {"shll16 rn", 1, 0, 0},
	OP_SHLR2:     {"shlr2 rn", 1, 0, 0},
	OP_SHLR8:     {"shlr8 rn", 1, 0, 0},
	OP_SHLR16:    {"shlr16 rn", 1, 0, 0},
	OP_LDS_MACH:  {"lds rm,mach", 1, 0, 0},
	OP_LDS_MACL:  {"lds rm,macl", 1, 0, 0},
	OP_LDS_PR:    {"lds rm,pr", 1, 0, 0},
	OP_JSR:       {"jsr @rm", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_TAS:       {"tas.b @rn", 4, 0, 0},
	OP_JMP:       {"jmp @rm", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_LDC_SR:    {"ldc rm,sr", 1, 0, 0},
	OP_LDC_GBR:   {"ldc rm,gbr", 1, 0, 0},
	OP_LDC_VBR:   {"ldc rm,vbr", 1, 0, 0},
	OP_MAC_W:     {"mac.w @rm+,@rn+", 3, 0, 0},

	OP_MOVL_L4: {"mov.l @(disp,rm),rn", 1, 0, 0},

	OP_MOVB_L:  {"mov.b @rm,rn", 1, 0, 0},
	OP_MOVW_L:  {"mov.w @rm,rn", 1, 0, 0},
	OP_MOVL_L:  {"mov.l @rm,rn", 1, 0, 0},
	OP_MOV:     {"mov rm,rn", 1, 0, 0},
	OP_MOVB_P:  {"mov.b @rm+,rn", 1, 0, 0},
	OP_MOVW_P:  {"mov.w @rm+,rn", 1, 0, 0},
	OP_MOVL_P:  {"mov.l @rm+,rn", 1, 0, 0},
	OP_NOT:     {"not rm,rn", 1, 0, 0},
	OP_SWAP_B:  {"swap.b rm,rn", 1, 0, 0},
	OP_SWAP_W:  {"swap.w rm,rn", 1, 0, 0},
	OP_NEGC:    {"negc rm,rn", 1, 0, 0},
	OP_NEG:     {"neg rm,rn", 1, 0, 0},
	OP_EXTU_B:  {"extu.b rm,rn", 1, 0, 0},
	OP_EXTU_W:  {"extu.w rm,rn", 1, 0, 0},
	OP_EXTS_B:  {"exts.b rm,rn", 1, 0, 0},
	OP_EXTS_W:  {"exts.w rm,rn", 1, 0, 0},
	OP_ADDI:    {"add #imm,rn", 1, 0, 0},
	OP_MOVB_S4: {"mov.b r0,@(disp,rn)", 1, 0, 0},
	OP_MOVW_S4: {"mov.w r0,@(disp,rn)", 1, 0, 0},
	OP_MOVB_L4: {"mov.b @(disp,rm),r0", 1, 0, 0},
	OP_MOVW_L4: {"mov.w @(disp,rm),r0", 1, 0, 0},
	OP_CMP_IM:  {"cmp/eq #imm,r0", 1, 0, 0},
	OP_BT:      {"bt label", 1, 3, fBranch | fSlotIllegal},
	OP_BF:      {"bf label", 1, 3, fBranch | fSlotIllegal},
	OP_BT_S:    {"bt/s label", 1, 2, fBranch | fDelayed | fSlotIllegal},
	OP_BF_S:    {"bf/s label", 1, 2, fBranch | fDelayed | fSlotIllegal},
	OP_MOVW_I:  {"mov.w @(disp,pc),rn", 1, 0, 0},
	OP_BRA:     {"bra label", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_BSR:     {"bsr label", 2, 0, fBranch | fDelayed | fSlotIllegal},
	OP_MOVB_SG: {"mov.b r0,@(disp,gbr)", 1, 0, 0},
	OP_MOVW_SG: {"mov.w r0,@(disp,gbr)", 1, 0, 0},
	OP_MOVL_SG: {"mov.l r0,@(disp,gbr)", 1, 0, 0},
	OP_TRAPA:   {"trapa #imm", 8, 0, fBranch | fSlotIllegal},
	OP_MOVB_LG: {"mov.b @(disp,gbr),r0", 1, 0, 0},
	OP_MOVW_LG: {"mov.w @(disp,gbr),r0", 1, 0, 0},
	OP_MOVL_LG: {"mov.l @(disp,gbr),r0", 1, 0, 0},
	OP_MOVA:    {"mova @(disp,pc),r0", 1, 0, 0},
	OP_TSTI:    {"tst #imm,r0", 1, 0, 0},
	OP_ANDI:    {"and #imm,r0", 1, 0, 0},
	OP_XORI:    {"xor #imm,r0", 1, 0, 0},
	OP_ORI:     {"or #imm,r0", 1, 0, 0},
	OP_TSTM:    {"tst.b #imm,@(r0,gbr)", 3, 0, 0},
	OP_ANDM:    {"and.b #imm,@(r0,gbr)", 3, 0, 0},
	OP_XORM:    {"xor.b #imm,@(r0,gbr)", 3, 0, 0},
	OP_ORM:     {"or.b #imm,@(r0,gbr)", 3, 0, 0},
	OP_MOVL_I:  {"mov.l @(disp,pc),rn", 1, 0, 0},
	OP_MOVI:    {"mov #imm,rn", 1, 0, 0},
}

func (k Kind) String() string {
	if k >= OP_COUNT {
		return "invalid"
	}
	return kinds[k].name
}
