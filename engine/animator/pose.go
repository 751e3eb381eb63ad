package animator

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/freefall-go/common"
)

// composeWorld fills a.world with model-space matrices for the current pose.
// Bones may appear in any order relative to their parents, so each bone's
// matrix is resolved recursively on demand and memoized in worldDone.
func (a *animator) composeWorld() {
	bones := a.skeleton.Bones
	for i := range a.worldDone {
		a.worldDone[i] = false
	}

	var resolve func(i int32)
	resolve = func(i int32) {
		if a.worldDone[i] {
			return
		}
		a.worldDone[i] = true

		local := a.world[i*16 : i*16+16]
		p := a.pose[i]
		common.ComposeTRS(local, p.Translation, p.Rotation, p.Scale)

		parent := bones[i].ParentIndex
		if parent >= 0 {
			resolve(parent)
			common.Mul4(local, a.world[parent*16:parent*16+16], local)
		}
	}

	for i := range bones {
		resolve(int32(i))
	}
}

func (a *animator) PoseMatrices() []float32 {
	if a.skeleton == nil {
		return nil
	}
	a.composeWorld()
	return a.world
}

func (a *animator) SkinningPalette() []float32 {
	if a.skeleton == nil {
		return nil
	}
	a.composeWorld()

	var corr [16]float32
	bones := a.skeleton.Bones
	for i := range bones {
		b := &bones[i]
		out := a.palette[i*16 : i*16+16]
		world := a.world[i*16 : i*16+16]

		if b.Correction != nil {
			// Retargeting correction slots between the posed world matrix and
			// the inverse bind, scaled so partial corrections stay stable.
			c := *b.Correction
			s := b.CorrectionScale
			if s == 0 {
				s = 1
			}
			c.Translation = common.Lerp3([3]float32{0, 0, 0}, c.Translation, s)
			c.Rotation = common.Slerp([4]float32{0, 0, 0, 1}, c.Rotation, s)
			c.Scale = common.Lerp3([3]float32{1, 1, 1}, c.Scale, s)
			common.ComposeTRS(corr[:], c.Translation, c.Rotation, c.Scale)
			common.Mul4(out, world, corr[:])
			common.Mul4(out, out, b.InverseBindMatrix[:])
			continue
		}

		common.Mul4(out, world, b.InverseBindMatrix[:])
	}
	return a.palette
}

func (a *animator) PackedPalette() ([]byte, error) {
	palette := a.SkinningPalette()
	if len(palette) == 0 {
		return nil, errors.New("animator has no skeleton to pack")
	}
	return common.SliceToBytes(palette), nil
}

func (a *animator) PackedBoneTransform(boneIndex int32) ([]byte, error) {
	if a.skeleton == nil {
		return nil, errors.New("animator has no skeleton to pack")
	}
	if boneIndex < 0 || int(boneIndex) >= len(a.pose) {
		return nil, fmt.Errorf("bone index %d out of range", boneIndex)
	}
	return common.StructToBytes(&a.pose[boneIndex]), nil
}
