package integration

import (
	"encoding/json"
	"fmt"

	"github.com/dbin-w/courtwatch/pkg/models"
)

const matchSystemPrompt = "你是一位专业且务实的网球战术教练。" +
	"你必须充分利用所有可用的生理数据维度进行分析, " +
	"每个观点必须引用具体数值作为论据。"

const periodSystemPrompt = "你是一位专注于数据复盘的职业网球体能分析师。"

// matchUserPrompt builds the single-match tactical analysis prompt around
// the configured player profile and the raw workout document.
func (a *deepseekAnalyzer) matchUserPrompt(workout models.WorkoutRecord) string {
	raw, _ := json.Marshal(workout.Raw)
	return fmt.Sprintf(`# Player Profile
- **Handedness**: %s
- **Backhand**: %s
- **Level**: NTRP %s

# Available Data Fields
**汇总指标**: duration (秒), avgHeartRate / maxHeartRate (bpm), heartRate.min,
activeEnergyBurned (kJ, 1 kcal = 4.184 kJ), distance (km), speed (km/hr), stepCadence (SPM)

**时序数据** (逐分钟采样):
- heartRateData[]: 逐分钟心率 (Avg/Min/Max), 用于心率区间分布、漂移趋势
- stepCount[]: 逐分钟步数, 即每分钟步频 SPM
- activeEnergy[]: 逐分钟能量消耗 (kJ)
- heartRateRecovery[]: 运动结束后心率恢复序列

**可衍生指标**:
- TRIMP (训练冲量): duration(min) x avgHR/maxHR
- HR Zone 分布: Zone1(<70%%maxHR) / Zone2(70-85%%) / Zone3(>85%%) 各占比
- 心率/步频比: heartRateData[i].Avg / stepCount[i].qty, 比值升高=疲劳
- 每步能量消耗: activeEnergy[i].qty / stepCount[i].qty
- HRR1: 结束时心率 - 1分钟后心率, >30 bpm 优秀, 20-30 正常, <20 需关注

# Style Guidelines
- 语言风格: 平实、直接、客观。
- 每个分析点必须引用具体数值作为论据, 拒绝空泛描述。
- 全文 500 字以内。

# Task
分维度分析 (每点引用具体数值):
1. **运动强度与心率特征**: avgHeartRate, maxHeartRate, 心率动态范围, heartRateData[] 漂移趋势
2. **心率分区与 TRIMP**: Zone1/Zone2/Zone3 时间占比; TRIMP 评估本场负荷; Zone3 占比 >40%% 提示过度消耗
3. **移动效率与 SPM 时序**: distance, speed, stepCadence; 前后半场步频对比; 心率/步频比变化
4. **能量消耗与运动经济性**: activeEnergyBurned 换算 kcal; activeEnergy[] 前后半场对比; 每步能量消耗
5. **心肺恢复能力 (HRR)**: heartRateRecovery[] 序列, 计算 HRR1
6. **综合战术建议**: 基于上述数据发现, 结合持拍习惯给出针对性调整

# Data (JSON)
%s
`, a.profile.Handedness, a.profile.Backhand, a.profile.NTRP, raw)
}

// periodUserPrompt builds the multi-match physiological review prompt.
func (a *deepseekAnalyzer) periodUserPrompt(workouts []models.WorkoutRecord, date string) string {
	raws := make([]map[string]any, len(workouts))
	for i, w := range workouts {
		raws[i] = w.Raw
	}
	data, _ := json.Marshal(raws)
	return fmt.Sprintf(`请对以下在 %s 完成的 %d 场网球运动进行赛后生理复盘。

# Available Data (每场均包含以下维度)
- 汇总: duration, avgHeartRate, maxHeartRate, heartRate.min, activeEnergyBurned, distance, speed, stepCadence
- 时序: heartRateData[], stepCount[], activeEnergy[]
- 恢复: heartRateRecovery[]
- 可衍生: TRIMP (duration_min x avgHR/maxHR), HR Zone 分布, 心率/步频比, 每步能量消耗, HRR1

# 要求 (每点必须引用具体数值):
1. **全天数据结算**: 累计时长、总卡路里 (kJ->kcal)、全天加权平均心率、全天峰值心率、总移动距离、总步数。
2. **TRIMP 负荷对比**: 计算各场 TRIMP 值, 评估负荷分布是否均匀。
3. **跨场体能衰减**: 逐场对比 avgHeartRate、stepCadence、speed; 计算心率/步频比在各场间的变化。
4. **能量分配与经济性**: 对比各场 activeEnergy[] 前后半场分布; 计算各场每步能量消耗。
5. **恢复能力对比**: 对比各场 HRR1 值, 判断心肺恢复能力是否随场次下降。
6. **表现特征总结**: 归纳生理特征 (如高心率耐受型、晚期衰减型等)。
7. **拒绝建议**: 只归纳已发生的数据, 不给出任何训练或战术建议。
8. **字数**: 500 字以内, 平实、严谨。

# 原始数据 (JSON):
%s
`, date, len(workouts), data)
}
