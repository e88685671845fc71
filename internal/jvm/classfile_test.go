package jvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeDescriptor(t *testing.T) {
	assert.Equal(t, "I", Int.Descriptor())
	assert.Equal(t, "J", Long.Descriptor())
	assert.Equal(t, "[B", ByteArrayType.Descriptor())
	assert.Equal(t, "Ljava/lang/Object;", ObjectType.Descriptor())
	assert.Equal(t, "[Ljava/lang/Object;", ObjectArrayType.Descriptor())
}

func TestTypeSlots(t *testing.T) {
	assert.Equal(t, 1, Int.Slots())
	assert.Equal(t, 2, Long.Slots())
	assert.Equal(t, 2, Double.Slots())
	assert.Equal(t, 1, ObjectType.Slots())
}

func TestMethodDescriptor(t *testing.T) {
	assert.Equal(t, "(II)I", MethodDescriptor([]Type{Int, Int}, Int))
	assert.Equal(t, "()V", MethodDescriptor(nil, Void))
}

func TestClassDescriptor_RequestConstant_Dedups(t *testing.T) {
	c := NewClassDescriptor("Mod")
	i1 := c.RequestConstant(StringConst("env.mem"))
	i2 := c.RequestConstant(StringConst("env.mem"))
	i3 := c.RequestConstant(StringConst("env.g"))

	assert.Equal(t, i1, i2, "identical requests must share one constant-pool slot")
	assert.NotEqual(t, i1, i3)
	assert.Len(t, c.ConstantPoolRequests, 2)
}

func TestClassDescriptor_AddFieldAndMethod(t *testing.T) {
	c := NewClassDescriptor("Mod")
	c.AddField(FieldDescriptor{Name: "memory", Type: ByteArrayType, AccessFlags: AccPublic})
	c.AddMethod(MethodInfo{Name: "size", ParamTypes: nil, ResultType: Int})

	assert.Equal(t, "java/lang/Object", c.SuperName)
	assert.Len(t, c.Fields, 1)
	assert.Len(t, c.Methods, 1)
	assert.Equal(t, "()I", c.Methods[0].Descriptor())
}
