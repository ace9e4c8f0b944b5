package consts

const (
	// MaxComputeUnits 单笔交易允许申请的计算单元上限，模拟测量时固定注入该值，
	// 确保真实程序逻辑不会在测量阶段被限额截断
	MaxComputeUnits uint32 = 1_400_000

	// ComputeUnitFloor 生产预算下限：极小转账的模拟消耗可能接近 0，低于该值按该值处理
	ComputeUnitFloor uint32 = 1000

	// ComputeUnitMargin 模拟值与真实执行之间的余量倍率
	ComputeUnitMargin = 1.3

	// PriorityFeeOffset 本地中位数之上追加的固定偏移（micro-lamports），
	// 防止历史样本过旧导致定价偏低
	PriorityFeeOffset uint64 = 100_000

	// DefaultPriorityLimit 单 CU 价格的绝对上限（micro-lamports）
	DefaultPriorityLimit uint64 = 20_000_000

	// MinTotalFeeLamports 单笔交易优先费的经济下限（lamports），
	// 防止消耗极低的交易定价过低而长期不被打包
	MinTotalFeeLamports uint64 = 10_000

	// PlaceholderBlockhash 模拟专用占位 blockhash（replaceRecentBlockhash=true 时不要求真实值）
	PlaceholderBlockhash = "11111111111111111111111111111111"
)
