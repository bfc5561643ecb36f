// Package nn implements the temperature regression network: a small
// feed-forward net (6 -> 64 -> 64 -> 1, ReLU) with manual backprop and an
// Adam optimizer, operating on plain float64 slices.
package nn

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
)

const (
	InputSize  = 6
	hiddenSize = 64

	beta1   = 0.9
	beta2   = 0.999
	epsAdam = 1e-8
)

var ErrShapeMismatch = errors.New("input width does not match the network input size")

// dense 全连接层，W 按 [out][in] 存放。
type dense struct {
	W [][]float64
	B []float64

	// Adam 一阶/二阶动量
	mW, vW [][]float64
	mB, vB []float64
}

func newDense(in, out int, rng *rand.Rand) *dense {
	l := &dense{
		W:  make([][]float64, out),
		B:  make([]float64, out),
		mW: make([][]float64, out),
		vW: make([][]float64, out),
		mB: make([]float64, out),
		vB: make([]float64, out),
	}
	// 与 torch.nn.Linear 一致的 U(-1/sqrt(in), 1/sqrt(in)) 初始化
	bound := 1.0 / math.Sqrt(float64(in))
	for o := 0; o < out; o++ {
		l.W[o] = make([]float64, in)
		l.mW[o] = make([]float64, in)
		l.vW[o] = make([]float64, in)
		for i := 0; i < in; i++ {
			l.W[o][i] = (rng.Float64()*2 - 1) * bound
		}
		l.B[o] = (rng.Float64()*2 - 1) * bound
	}
	return l
}

func (l *dense) ensureState() {
	if l.mW != nil {
		return
	}
	l.mW = make([][]float64, len(l.W))
	l.vW = make([][]float64, len(l.W))
	for o := range l.W {
		l.mW[o] = make([]float64, len(l.W[o]))
		l.vW[o] = make([]float64, len(l.W[o]))
	}
	l.mB = make([]float64, len(l.B))
	l.vB = make([]float64, len(l.B))
}

func (l *dense) forward(x []float64) []float64 {
	out := make([]float64, len(l.W))
	for o := range l.W {
		sum := l.B[o]
		row := l.W[o]
		for i, v := range x {
			sum += row[i] * v
		}
		out[o] = sum
	}
	return out
}

// Regressor 均温回归网络。
type Regressor struct {
	l1, l2, l3 *dense

	lr   float64
	step int
}

// NewRegressor 随机初始化一个网络。
func NewRegressor(lr float64, seed int64) *Regressor {
	rng := rand.New(rand.NewSource(seed))
	return &Regressor{
		l1: newDense(InputSize, hiddenSize, rng),
		l2: newDense(hiddenSize, hiddenSize, rng),
		l3: newDense(hiddenSize, 1, rng),
		lr: lr,
	}
}

func relu(z []float64) []float64 {
	a := make([]float64, len(z))
	for i, v := range z {
		if v > 0 {
			a[i] = v
		}
	}
	return a
}

func (r *Regressor) forwardOne(x []float64) (z1, a1, z2, a2 []float64, pred float64) {
	z1 = r.l1.forward(x)
	a1 = relu(z1)
	z2 = r.l2.forward(a1)
	a2 = relu(z2)
	pred = r.l3.forward(a2)[0]
	return
}

// Predict 对一批特征向量做一次前向，按输入顺序返回预测值。
func (r *Regressor) Predict(features [][]float64) ([]float64, error) {
	preds := make([]float64, len(features))
	for i, x := range features {
		if len(x) != InputSize {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(x), InputSize)
		}
		_, _, _, _, p := r.forwardOne(x)
		preds[i] = p
	}
	return preds, nil
}

// Loss 计算一批数据的 MSE，不做参数更新。
func (r *Regressor) Loss(features [][]float64, targets []float64) (float64, error) {
	preds, err := r.Predict(features)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, p := range preds {
		diff := p - targets[i]
		sum += diff * diff
	}
	return sum / float64(len(preds)), nil
}

type gradients struct {
	l1W, l2W, l3W [][]float64
	l1B, l2B, l3B []float64
}

func zeroGradients() *gradients {
	g := &gradients{
		l1W: make([][]float64, hiddenSize),
		l2W: make([][]float64, hiddenSize),
		l3W: make([][]float64, 1),
		l1B: make([]float64, hiddenSize),
		l2B: make([]float64, hiddenSize),
		l3B: make([]float64, 1),
	}
	for o := 0; o < hiddenSize; o++ {
		g.l1W[o] = make([]float64, InputSize)
		g.l2W[o] = make([]float64, hiddenSize)
	}
	g.l3W[0] = make([]float64, hiddenSize)
	return g
}

// TrainBatch 对一个 batch 做前向、MSE 反向与一步 Adam 更新，返回该 batch 的损失。
func (r *Regressor) TrainBatch(features [][]float64, targets []float64) (float64, error) {
	m := len(features)
	if m == 0 {
		return 0, errors.New("empty batch")
	}
	if len(targets) != m {
		return 0, fmt.Errorf("targets length %d does not match batch size %d", len(targets), m)
	}

	g := zeroGradients()
	var loss float64

	for i, x := range features {
		if len(x) != InputSize {
			return 0, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(x), InputSize)
		}
		z1, a1, z2, a2, pred := r.forwardOne(x)

		diff := pred - targets[i]
		loss += diff * diff
		// dL/dpred，损失对 batch 取均值
		dp := 2 * diff / float64(m)

		// 输出层
		g.l3B[0] += dp
		dz2 := make([]float64, hiddenSize)
		for j := 0; j < hiddenSize; j++ {
			g.l3W[0][j] += dp * a2[j]
			if z2[j] > 0 {
				dz2[j] = dp * r.l3.W[0][j]
			}
		}

		// 第二隐层
		dz1 := make([]float64, hiddenSize)
		for j := 0; j < hiddenSize; j++ {
			if dz2[j] == 0 {
				continue
			}
			g.l2B[j] += dz2[j]
			row := r.l2.W[j]
			gRow := g.l2W[j]
			for k := 0; k < hiddenSize; k++ {
				gRow[k] += dz2[j] * a1[k]
				dz1[k] += dz2[j] * row[k]
			}
		}

		// 第一隐层
		for j := 0; j < hiddenSize; j++ {
			if z1[j] <= 0 || dz1[j] == 0 {
				continue
			}
			g.l1B[j] += dz1[j]
			gRow := g.l1W[j]
			for k := 0; k < InputSize; k++ {
				gRow[k] += dz1[j] * x[k]
			}
		}
	}

	r.step++
	r.l1.applyAdam(g.l1W, g.l1B, r.lr, r.step)
	r.l2.applyAdam(g.l2W, g.l2B, r.lr, r.step)
	r.l3.applyAdam(g.l3W, g.l3B, r.lr, r.step)

	return loss / float64(m), nil
}

func (l *dense) applyAdam(gW [][]float64, gB []float64, lr float64, step int) {
	l.ensureState()
	c1 := 1 - math.Pow(beta1, float64(step))
	c2 := 1 - math.Pow(beta2, float64(step))
	for o := range l.W {
		for i := range l.W[o] {
			grad := gW[o][i]
			l.mW[o][i] = beta1*l.mW[o][i] + (1-beta1)*grad
			l.vW[o][i] = beta2*l.vW[o][i] + (1-beta2)*grad*grad
			mHat := l.mW[o][i] / c1
			vHat := l.vW[o][i] / c2
			l.W[o][i] -= lr * mHat / (math.Sqrt(vHat) + epsAdam)
		}
		grad := gB[o]
		l.mB[o] = beta1*l.mB[o] + (1-beta1)*grad
		l.vB[o] = beta2*l.vB[o] + (1-beta2)*grad*grad
		mHat := l.mB[o] / c1
		vHat := l.vB[o] / c2
		l.B[o] -= lr * mHat / (math.Sqrt(vHat) + epsAdam)
	}
}

// checkpoint 权重文件的序列化结构，只存参数不存优化器状态。
type checkpoint struct {
	L1W [][]float64 `json:"l1_w"`
	L1B []float64   `json:"l1_b"`
	L2W [][]float64 `json:"l2_w"`
	L2B []float64   `json:"l2_b"`
	L3W [][]float64 `json:"l3_w"`
	L3B []float64   `json:"l3_b"`
}

// Save 序列化网络参数。
func (r *Regressor) Save() ([]byte, error) {
	return json.Marshal(checkpoint{
		L1W: r.l1.W, L1B: r.l1.B,
		L2W: r.l2.W, L2B: r.l2.B,
		L3W: r.l3.W, L3B: r.l3.B,
	})
}

// checkLayerShape 校验一层权重的完整形状。内层行宽不对的权重文件如果放过去，
// 前向传播会越界，所以加载期就要整层验完。
func checkLayerShape(name string, w [][]float64, b []float64, out, in int) error {
	if len(w) != out || len(b) != out {
		return fmt.Errorf("checkpoint layer %s shape mismatch: got %dx? bias %d, want %dx%d", name, len(w), len(b), out, in)
	}
	for o, row := range w {
		if len(row) != in {
			return fmt.Errorf("checkpoint layer %s row %d width mismatch: got %d, want %d", name, o, len(row), in)
		}
	}
	return nil
}

// Load 从序列化的权重恢复网络。
func Load(data []byte, lr float64) (*Regressor, error) {
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint failed: %w", err)
	}
	if err := checkLayerShape("l1", cp.L1W, cp.L1B, hiddenSize, InputSize); err != nil {
		return nil, err
	}
	if err := checkLayerShape("l2", cp.L2W, cp.L2B, hiddenSize, hiddenSize); err != nil {
		return nil, err
	}
	if err := checkLayerShape("l3", cp.L3W, cp.L3B, 1, hiddenSize); err != nil {
		return nil, err
	}
	r := &Regressor{
		l1: &dense{W: cp.L1W, B: cp.L1B},
		l2: &dense{W: cp.L2W, B: cp.L2B},
		l3: &dense{W: cp.L3W, B: cp.L3B},
		lr: lr,
	}
	return r, nil
}
